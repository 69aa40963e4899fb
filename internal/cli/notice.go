package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// printNotice writes a human-facing message to stderr when stderr is a terminal.
func printNotice(command *cobra.Command, format string, arguments ...any) {
	writer := command.ErrOrStderr()
	if !isTerminal(writer) {
		return
	}
	fmt.Fprintf(writer, format+"\n", arguments...)
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
