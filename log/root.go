package log

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Module names used throughout the wallet engine. Every package logs
// under one of these so a host application can enable/disable by
// subsystem without parsing message text.
const (
	Merkle   = "merkle"   // commitment tree queue/insert/root
	Note     = "note"     // note hashing, encryption, serialization
	Scanner  = "scanner"  // wallet scan engine
	Wallet   = "wallet"   // wallet identity, TXO/balance bookkeeping
	Planner  = "planner"  // spending-solution planner
	Crypto   = "crypto"   // crypto primitives
	Storage  = "storage"  // KV store adapters
	Chain    = "chain"    // external chain-collaborator glue
)

var root atomic.Value

func init() {
	root.Store(NewLogger(DiscardHandler()))
	DisableModule(Scanner)
}

func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "MAX", "MAXVERBOSITY":
		return levelMaxVerbosity, nil
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "CRIT", "CRITICAL":
		return LevelCrit, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

// InitLogger installs a terminal logger at the given level as the package default.
func InitLogger(logLevel string) error {
	logLvl, err := ParseLevel(logLevel)
	if err != nil {
		return err
	}
	SetDefault(NewLogger(NewTerminalHandler(os.Stderr, logLvl)))
	return nil
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(Logger)
}

func initModuleMap(known, disabled []string) map[string]bool {
	m := make(map[string]bool, len(known))
	for _, module := range known {
		m[module] = true
	}
	for _, module := range disabled {
		m[module] = false
	}
	return m
}

// defaultDisabledModules starts disabled; everything else defaults to enabled.
var defaultDisabledModules = []string{Scanner}

var moduleEnabled = initModuleMap([]string{Merkle, Note, Scanner, Wallet, Planner, Crypto, Storage, Chain}, defaultDisabledModules)

// EnableModule enables Trace and Debug logging for the specified module.
// Info and higher levels are emitted regardless of the module gate.
func EnableModule(module string) {
	moduleEnabled[module] = true
}

// DisableModule suppresses Trace and Debug records for the specified
// module; Info and higher levels are still emitted.
func DisableModule(module string) {
	moduleEnabled[module] = false
}

func isModuleEnabled(module string) bool {
	enabled, ok := moduleEnabled[module]
	return !ok || enabled
}

// Trace logs a message at the trace level for a specific module.
func Trace(module string, msg string, ctx ...interface{}) {
	if !isModuleEnabled(module) {
		return
	}
	Root().Write(LevelTrace, module, msg, ctx...)
}

// Debug logs a message at the debug level for a specific module.
// NotAddressedToUs decryption failures are logged here; see spec §7.
func Debug(module string, msg string, ctx ...interface{}) {
	if !isModuleEnabled(module) {
		return
	}
	Root().Write(LevelDebug, module, msg, ctx...)
}

func Info(module string, msg string, ctx ...interface{}) {
	Root().Write(LevelInfo, module, msg, ctx...)
}

func Warn(module string, msg string, ctx ...interface{}) {
	Root().Write(LevelWarn, module, msg, ctx...)
}

func Error(module string, msg string, ctx ...interface{}) {
	Root().Write(LevelError, module, msg, ctx...)
}

// Crit logs at the critical level. It does not terminate the process.
func Crit(module string, msg string, ctx ...interface{}) {
	Root().Write(LevelCrit, module, msg, ctx...)
}

func New(ctx ...interface{}) Logger {
	return Root().With(ctx...)
}
