package admin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/todolist/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errPasswordMismatch = errors.New("passwords do not match")

// GetPassword prints prompt to w and reads a password from the terminal
// without echo. The caller should wipe the result.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetNewPassword asks for a password twice and returns it when both entries
// match.
func GetNewPassword(w io.Writer) ([]byte, error) {
	first, err := GetPassword(w, "New password: ")
	if err != nil {
		return nil, err
	}

	second, err := GetPassword(w, "Repeat password: ")
	if err != nil {
		common.WipeByteArray(first)
		return nil, err
	}
	defer common.WipeByteArray(second)

	if !bytes.Equal(first, second) {
		common.WipeByteArray(first)
		return nil, errPasswordMismatch
	}
	return first, nil
}
