package utils

import (
	"context"

	"github.com/kunal-9999/inventory-management-system-sub000/appctx"
)

var (
	ContextKeySheetId       = appctx.ContextKeySheetId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetSheetIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeySheetId)
}

func SetSheetIdInContext(ctx context.Context, sheetId string) context.Context {
	return appctx.Set(ctx, ContextKeySheetId, sheetId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
