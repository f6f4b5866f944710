package ballotctl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/cryptox"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// getPassphrase prompts on w and reads the org passphrase without echo.
// The caller wipes the result.
func getPassphrase(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter org passphrase: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, fmt.Errorf("empty passphrase")
	}
	return pw, nil
}

// orgKey derives the org's text key from a passphrase. The org id is the
// salt, so every member holding the passphrase derives the same key.
func orgKey(orgID string, pass []byte) []byte {
	return cryptox.DeriveMasterKey(pass, []byte("orgvote:"+orgID))
}

func sealText(w io.Writer, orgID, text string) (cryptox.EncryptedText, error) {
	pass, err := getPassphrase(w)
	if err != nil {
		return cryptox.EncryptedText{}, err
	}
	defer common.WipeByteArray(pass)

	key := orgKey(orgID, pass)
	defer common.WipeByteArray(key)
	return cryptox.Seal(text, key)
}

func openText(w io.Writer, orgID string, e cryptox.EncryptedText) (string, error) {
	pass, err := getPassphrase(w)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pass)

	key := orgKey(orgID, pass)
	defer common.WipeByteArray(key)
	return cryptox.Open(e, key)
}

// parseTime accepts RFC 3339 timestamps.
func parseTime(name, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t.UTC(), nil
}

// optionalTime returns nil for an empty flag value.
func optionalTime(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := parseTime(name, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
