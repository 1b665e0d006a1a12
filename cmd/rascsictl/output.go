package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/sigreer/rascsictl/internal/command"
	"github.com/sigreer/rascsictl/internal/result"
	"github.com/sigreer/rascsictl/internal/transport"
)

// rejectedError is a command the service answered with status false
type rejectedError struct {
	what string
	msg  string
}

func (e *rejectedError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("%s was rejected by RaSCSI", e.what)
	}
	return fmt.Sprintf("%s was rejected by RaSCSI: %s", e.what, e.msg)
}

// report prints the outcome of a state changing command
func report(res *result.Result, what string) error {
	if !res.Status {
		return &rejectedError{what: what, msg: res.Message}
	}
	if res.Message != "" {
		fmt.Println(res.Message)
	} else {
		fmt.Printf("%s: OK\n", what)
	}
	return nil
}

func asTransportError(err error) (*transport.Error, bool) {
	var te *transport.Error
	ok := errors.As(err, &te)
	return te, ok
}

// errorCause is the innermost error beneath the transport error
func errorCause(err error) error {
	if te, ok := asTransportError(err); ok && te.Err != nil {
		return errors.Cause(te.Err)
	}
	return errors.Cause(err)
}

// parseIDList parses "7,6" into IDs; blank entries are ignored
func parseIDList(s string) ([]int, error) {
	parts := lo.Filter(strings.Split(s, ","), func(p string, _ int) bool {
		return strings.TrimSpace(p) != ""
	})
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := command.ParseID(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
