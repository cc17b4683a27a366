package world

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownThing дескриптор не указывает на живой объект уровня
	ErrUnknownThing = errors.New("world: unknown thing")
	// ErrOutsideMap точка не принадлежит ни одному сектору
	ErrOutsideMap = errors.New("world: position is outside of the map")
)

// ContractError нарушение контракта вызывающей стороной (двойная установка
// позиции, несбалансированный стек трассировки и т.п.). Ядро такие ошибки
// только возвращает, обработка - на верхнем уровне.
type ContractError struct {
	Op  string
	Msg string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violation in %s: %s", e.Op, e.Msg)
}

// Contractf создаёт ContractError с форматированным сообщением
func Contractf(op, format string, args ...interface{}) *ContractError {
	return &ContractError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsContractError проверяет, есть ли в цепочке ошибок нарушение контракта
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}
