package domain

import (
	"errors"
	"fmt"
)

// Mensagens públicas, devolvidas no campo "error" das respostas.
const (
	MsgMissingData  = "Missing required data."
	MsgInvalidDate  = "Unable to convert value to datetime."
	MsgInvalidRange = "Number must be an integer between 1 and 20."
)

// ErrMissingData indica campo obrigatório ausente.
var ErrMissingData = errors.New(MsgMissingData)

// ParseError indica um valor que não é uma data DD.MM.YYYY válida.
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string { return MsgInvalidDate }

func (e *ParseError) Unwrap() error { return e.Err }

// Detail inclui o valor recebido e a causa; útil para logs, não para o cliente.
func (e *ParseError) Detail() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %q", e.Value)
	}
	return fmt.Sprintf("parse %q: %v", e.Value, e.Err)
}

// RangeError indica tamanho de janela do histórico fora de [Min, Max].
type RangeError struct {
	Value    string
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("Number must be an integer between %d and %d.", e.Min, e.Max)
}
