package service

import (
	"fmt"
	"strings"
)

type ErrorCode string

const (
	ErrorCodeMissingColumns ErrorCode = "MISSING_COLUMNS"
	ErrorCodeInvalidFile    ErrorCode = "INVALID_FILE"
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrorCodeRuleExists     ErrorCode = "RULE_EXISTS"
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func NewErr(code ErrorCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

func missingColumnsErr(cols []string) *Error {
	return NewErr(ErrorCodeMissingColumns, "Missing columns: "+strings.Join(cols, ", "))
}
