package config

import (
	_ "embed"
)

//go:embed defaults/pingpong.yaml
var defaultYAML []byte

// Default returns the built-in configuration, used when no YAML file is
// found and as the fallback if the embedded default fails to parse.
func Default() Config {
	return Config{
		Court: CourtConfig{
			HalfLength:   5.0,
			HalfWidth:    1.5,
			TableHeight:  0.76,
			NetHeight:    0.35,
			BoundsMargin: 0.75,
			KillPlaneY:   -0.5,
		},
		Physics: PhysicsConfig{
			Gravity:         9.81,
			Restitution:     0.82,
			MaxSpeed:        14.0,
			VerticalCapFrac: 0.30,
			RallyAccel:      1.02,
			ServeSpeed:      5.5,
			ServeLift:       2.2,
		},
		Paddle: PaddleConfig{
			HalfWidth:  0.19,
			HalfHeight: 0.14,
			MoveSpeed:  2.2,
			Impulse:    0.65,
		},
		Net: NetConfig{
			TickRate:         30,
			PublishEvery:     3,
			SmoothingRate:    12.0,
			SnapDistance:     1.2,
			DelayClampMs:     250,
			CooldownMs:       500,
			AckTimeoutMs:     350,
			InboundPerSecond: 120,
			InboundBurst:     60,
		},
		Match: MatchConfig{
			WinThreshold:    11,
			CountdownSteps:  3,
			CountdownStepMs: 1000,
			WinnerBannerMs:  5000,
			ResetNoticeMs:   2000,
		},
	}
}
