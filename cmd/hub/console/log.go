package console

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const PictoChip = "🔌"
const PictoUpload = "📦"
const PictoFinish = "🏁"
const PictoStop = "🚫"
const PictoCompass = "🧭"

var writer io.Writer
var errWriter io.Writer

func init() {
	writer = os.Stdout
	errWriter = os.Stderr
}

func SetOutput(w, errw io.Writer) {
	writer = w
	errWriter = errw
}

func Errorf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), fmt.Sprintf(msg, args...))
}

func Warnf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), fmt.Sprintf(msg, args...))
}

func Infof(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", White("..."), fmt.Sprintf(msg, args...))
}

func PInfof(picto, msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", picto, fmt.Sprintf(msg, args...))
}

func Printf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, msg, args...)
}

// YAML prints v as a YAML document.
func YAML(v any) error {
	enc := yaml.NewEncoder(writer)
	defer func() { _ = enc.Close() }()
	err := enc.Encode(v)
	if err != nil {
		return Exit(1, "encoding error: %s", Red(err))
	}
	return nil
}
