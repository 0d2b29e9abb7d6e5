package platforms

import (
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
)

func init() {
	registerIRacing()
	registerSteam()
	registerEA()
}

func registerIRacing() {
	core.Register(core.Platform{
		Key:   "iracing",
		Label: "iRacing",
		Headers: []core.HeaderSpec{
			{Field: "iracing_id", Label: "iRacing Customer ID", Type: core.FieldTypeNumber},
		},
		Normalizer: func(_, value string) string {
			return NormalizeNumericID(value)
		},
	})
}

func registerSteam() {
	core.Register(core.Platform{
		Key:   "steam",
		Label: "Steam",
		Headers: []core.HeaderSpec{
			{Field: "steam_id64", Label: "SteamID64", Type: core.FieldTypeNumber},
		},
		Normalizer: func(_, value string) string {
			return NormalizeNumericID(value)
		},
	})
}

func registerEA() {
	core.Register(core.Platform{
		Key:   "ea",
		Label: "EA Racenet",
		Headers: []core.HeaderSpec{
			{Field: "ea_id", Label: "EA ID", Type: core.FieldTypeText},
		},
		Normalizer: func(_, value string) string {
			return NormalizeHandle(value)
		},
	})
}
