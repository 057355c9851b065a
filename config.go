// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pdfscan/pdfscan/logger"
)

// ParsingMode governs what happens when a page's content streams cannot be
// resolved or decoded. Strict (the default fail-fast policy) aborts the
// whole load with that error; BestEffort logs it and keeps the page with no
// content so the rest of the document can still be inspected. Every other
// failure during loading aborts the load in both modes.
type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

// Config governs document loading. The zero value is not valid; use
// NewDefaultConfig and override as needed, then call Validate.
type Config struct {
	// MaxObjects bounds both the xref table size and the fan-out width
	// of the one permitted concurrent operation (per-page content-stream
	// decode), guarding against a maliciously large xref table.
	MaxObjects int `validate:"min=1"`
	// ReadTimeout bounds NewReader/Open against a pathological input.
	ReadTimeout time.Duration `validate:"required"`
	ParsingMode ParsingMode   `validate:"oneof=strict best-effort"`
	DebugOn     bool
	Logger      logger.LogFunc
}

// NewDefaultConfig returns strict, fail-fast parsing with a generous but
// bounded object count and read timeout.
func NewDefaultConfig() *Config {
	return &Config{
		MaxObjects:  1_000_000,
		ReadTimeout: 30 * time.Second,
		ParsingMode: Strict,
		DebugOn:     false,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("validating config")
	validate := validator.New()
	return validate.Struct(cfg)
}
