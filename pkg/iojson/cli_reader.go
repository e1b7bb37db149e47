package iojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned when neither a file nor piped input is available.
var ErrNoInput = errors.New("no input provided (stdin is a terminal); use --file or pipe JSON input")

// FileReader decodes one JSON request of type T from the file named by its
// --file flag, or from stdin when the flag is empty or "-".
type FileReader[T any] struct {
	path string
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to a JSON request (reads from stdin if not provided)",
		Destination: &fr.path,
	}
}

// Read decodes the request. stdin is only consulted without a file path and
// is rejected when it is an interactive terminal.
func (fr *FileReader[T]) Read(stdin io.Reader) (T, error) {
	var input T

	if stdin == nil {
		stdin = os.Stdin
	}

	reader := stdin
	if fr.path != "" && fr.path != "-" {
		f, err := os.Open(fr.path)
		if err != nil {
			return input, fmt.Errorf("open request file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	} else if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return input, ErrNoInput
	}

	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		if errors.Is(err, io.EOF) {
			return input, fmt.Errorf("decode request: empty input")
		}
		return input, fmt.Errorf("decode request: %w", err)
	}

	return input, nil
}
