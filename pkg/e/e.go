package e

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку для последующего отображения в HTTP-статус.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindTargetNotFound
	KindPcaUnavailable
	KindStoreFailure
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Параметры запроса
	ErrBadRequest      = fmt.Errorf("bad request")
	ErrInvalidTargetID = fmt.Errorf("targetId must be a positive integer")
	ErrInvalidChunk    = fmt.Errorf("chunk coordinates must be integers")
	ErrTooManyChunks   = fmt.Errorf("chunks must contain between 1 and the configured maximum number of entries")
	ErrInvalidBody     = fmt.Errorf("malformed request body")

	// Состояние поля
	ErrTargetNotFound  = fmt.Errorf("target artwork not found or not eligible")
	ErrPcaUnavailable  = fmt.Errorf("pca basis is not loaded")
	ErrPcaRankTooLow   = fmt.Errorf("pca basis must contain at least 2 components")
	ErrStoreFailure    = fmt.Errorf("vector store query failed")
	ErrInternal        = fmt.Errorf("internal error")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// KindError — ошибка с явно присвоенной категорией, которая определяет HTTP-статус.
type KindError struct {
	kind Kind
	err  error
}

func (k *KindError) Error() string { return k.err.Error() }
func (k *KindError) Unwrap() error { return k.err }
func (k *KindError) Kind() Kind    { return k.kind }

// New оборачивает err в KindError заданной категории.
func New(kind Kind, err error) error {
	return &KindError{kind: kind, err: err}
}

// ClassOf извлекает Kind из err, если он был присвоен через New; иначе KindInternal.
func ClassOf(err error) Kind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindInternal
}

// Wrap оборачивает ошибку с указанием места возникновения.
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
