// Unified error handling for the printipi Go migration
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
	"runtime"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Kinematics errors
	ErrKinematics       ErrorCode = "KINEMATICS"
	ErrKinematicsBounds ErrorCode = "KINEMATICS_BOUNDS"
	ErrKinematicsCalc   ErrorCode = "KINEMATICS_CALC"

	// Hardware errors
	ErrHardwarePin    ErrorCode = "HARDWARE_PIN"
	ErrHardwareSerial ErrorCode = "HARDWARE_SERIAL"

	// Runtime errors
	ErrRuntime     ErrorCode = "RUNTIME"
	ErrRuntimeInit ErrorCode = "RUNTIME_INIT"
)

// HostError is the unified error type for the host system
type HostError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Section is the config section or context
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *HostError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Option, e.Message)
	}
	if e.Section != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Section, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetSection sets the context section
func (e *HostError) SetSection(section string) *HostError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *HostError) SetOption(option string) *HostError {
	e.Option = option
	return e
}

// SetContext adds additional context
func (e *HostError) SetContext(key string, value interface{}) *HostError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new HostError
func New(code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Config errors

// ConfigSectionError creates an error for missing config section
func ConfigSectionError(section string) *HostError {
	return New(ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).
		SetSection(section)
}

// ConfigOptionError creates an error for missing or invalid config option
func ConfigOptionError(section, option string) *HostError {
	return New(ErrConfigOption, fmt.Sprintf("option '%s' not found in section '%s'", option, section)).
		SetSection(section).
		SetOption(option)
}

// ConfigValidationError creates an error for config validation failure
func ConfigValidationError(section, option string, reason string) *HostError {
	return New(ErrConfigValidation, fmt.Sprintf("option '%s' in section '%s': %s", option, section, reason)).
		SetSection(section).
		SetOption(option)
}

// Kinematics errors

// KinematicsError creates a general kinematics error
func KinematicsError(message string) *HostError {
	return New(ErrKinematics, message)
}

// KinematicsBoundsError creates an error for kinematics bounds violation
func KinematicsBoundsError(axis string, coord, min, max float64) *HostError {
	return New(ErrKinematicsBounds, fmt.Sprintf("%s coordinate %.3f out of bounds [%.3f, %.3f]", axis, coord, min, max))
}

// KinematicsCalcError creates an error for an unsolvable kinematic position
func KinematicsCalcError(axis string, reason string) *HostError {
	return New(ErrKinematicsCalc, fmt.Sprintf("axis %s: %s", axis, reason))
}

// Hardware errors

// HardwarePinError creates an error for a GPIO pin failure
func HardwarePinError(pin int, err error) *HostError {
	return Wrap(err, ErrHardwarePin, fmt.Sprintf("gpio pin %d", pin))
}

// HardwareSerialError creates an error for a serial link failure
func HardwareSerialError(port string, err error) *HostError {
	return Wrap(err, ErrHardwareSerial, fmt.Sprintf("serial port %s", port))
}

// Runtime errors

// RuntimeError creates a general runtime error
func RuntimeError(message string) *HostError {
	return New(ErrRuntime, message)
}

// RecoverPanic safely recovers from panic and converts to error
func RecoverPanic() *HostError {
	if r := recover(); r != nil {
		var err error
		switch x := r.(type) {
		case string:
			err = RuntimeError(fmt.Sprintf("panic: %s", x))
		case runtime.Error:
			err = RuntimeError(x.Error())
		case error:
			err = RuntimeError(x.Error())
		default:
			err = RuntimeError(fmt.Sprintf("panic: %v", x))
		}
		return err.(*HostError)
	}
	return nil
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	if hostErr, ok := err.(*HostError); ok {
		return hostErr.Code == code
	}
	return false
}

// IsConfig checks if error is a config error
func IsConfig(err error) bool {
	return Is(err, ErrConfigSection) ||
		Is(err, ErrConfigOption) ||
		Is(err, ErrConfigValidation)
}

// IsKinematics checks if error is a kinematics error
func IsKinematics(err error) bool {
	return Is(err, ErrKinematics) ||
		Is(err, ErrKinematicsBounds) ||
		Is(err, ErrKinematicsCalc)
}

// IsHardware checks if error is a hardware error
func IsHardware(err error) bool {
	return Is(err, ErrHardwarePin) ||
		Is(err, ErrHardwareSerial)
}
