package config

import "gitlab.com/tinyland/lab/telegrid/pkg/telemetry"

// ColumnPreset returns the column keys for a named preset.
// If the name is not recognized, the "default" preset is returned.
func ColumnPreset(name string) []string {
	switch name {
	case "compact":
		return []string{telemetry.KeyName, telemetry.KeyValue, telemetry.KeyUnit}
	case "sources":
		return []string{telemetry.KeySource, telemetry.KeyName, telemetry.KeyValue}
	case "timeline":
		return []string{telemetry.KeyTime, telemetry.KeyName, telemetry.KeyValue}
	default:
		return []string{
			telemetry.KeyTime,
			telemetry.KeySource,
			telemetry.KeyName,
			telemetry.KeyValue,
			telemetry.KeyUnit,
		}
	}
}

// PresetNames lists the recognized column presets.
func PresetNames() []string {
	return []string{"default", "compact", "sources", "timeline"}
}
