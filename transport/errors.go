package transport

import (
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-apiclient/core"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func networkError(source error, message string, metadata map[string]any) error {
	return core.NewNetworkError(source, message, metadata)
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ErrorTextBuildFailed
	case goerrors.CategoryExternal:
		return core.ErrorTextNetworkFailure
	default:
		return core.ErrorTextInternal
	}
}
