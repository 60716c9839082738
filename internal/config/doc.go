// SPDX-License-Identifier: MIT

// Package config loads the settings daemon configuration.
//
// Precedence is ENV > File > Defaults. The YAML file is decoded strictly:
// unknown keys fail the load with ErrUnknownConfigField.
package config
