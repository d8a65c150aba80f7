//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package mcpserver

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the call arguments over dst, which holds the defaults,
// then validates it. Absent arguments keep their defaults.
func bind(req mcp.CallToolRequest, dst any) error {
	if args := req.GetArguments(); len(args) > 0 {
		raw, err := json.Marshal(args)
		if err != nil {
			return apperrors.Validation("", "invalid arguments: %v", err)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return apperrors.Validation("", "invalid arguments: %v", err)
		}
	}

	err := validate.Struct(dst)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.Validation(fe.Field(), "%s", describe(fe))
	}
	return err
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

type daysArgs struct {
	Days int `json:"days" validate:"min=1"`
}

type rankArgs struct {
	Days  int `json:"days" validate:"min=1"`
	Limit int `json:"limit" validate:"min=1"`
}

type lowStockArgs struct {
	Threshold int `json:"threshold"`
	Limit     int `json:"limit" validate:"min=1"`
}

type opsArgs struct {
	Days              int `json:"days" validate:"min=1"`
	LowStockThreshold int `json:"low_stock_threshold"`
}

type reportArgs struct {
	Days int `json:"days" validate:"min=1"`
	TopN int `json:"top_n" validate:"min=1"`
}

type describeArgs struct {
	TableName string `json:"table_name" validate:"required"`
}

type sqlArgs struct {
	Query     string `json:"query" validate:"required"`
	MaxRows   int    `json:"max_rows" validate:"min=1,max=2000"`
	TimeoutMs int    `json:"timeout_ms" validate:"min=100,max=60000"`
}

// seedArgs is not range-checked here: the engine reports a permission
// problem before a bad size.
type seedArgs struct {
	Size       string `json:"size"`
	ResetFirst bool   `json:"reset_first"`
	Seed       int64  `json:"seed"`
	Traffic    string `json:"traffic"`
}
