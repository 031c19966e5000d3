// Package internal holds helpers shared by the wire codec and the client.
package internal

import (
	"fmt"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal/imapwire"
)

// ReadFlagList reads a parenthesized flag list.
func ReadFlagList(dec *imapwire.Decoder) ([]imap.Flag, error) {
	var flags []imap.Flag
	err := dec.ExpectList(func() error {
		flag, err := ReadFlag(dec)
		if err != nil {
			return err
		}
		flags = append(flags, imap.Flag(flag))
		return nil
	})
	return flags, err
}

// ReadMsgFlags reads a flag list and keeps the system flags tracked by the
// flag cache.
func ReadMsgFlags(dec *imapwire.Decoder) (imap.MsgFlags, error) {
	flags, err := ReadFlagList(dec)
	if err != nil {
		return 0, err
	}
	return imap.MsgFlagsFromList(flags), nil
}

// ReadFlag reads a single flag, including the "\*" permanent flag.
func ReadFlag(dec *imapwire.Decoder) (string, error) {
	isSystem := dec.Special('\\')
	if isSystem && dec.Special('*') {
		return string(imap.FlagWildcard), nil
	}
	var name string
	if !dec.ExpectAtom(&name) {
		return "", fmt.Errorf("in flag: %w", dec.Err())
	}
	if isSystem {
		name = "\\" + name
	}
	return name, nil
}
