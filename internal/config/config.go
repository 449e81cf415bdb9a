// Package config provides YAML-based configuration loading and match
// presets for the ping-pong session core.
package config

// Config contains all tunables for a session: court geometry, ball and
// paddle physics, replication cadence, and match rules.
type Config struct {
	Court   CourtConfig   `yaml:"court"`
	Physics PhysicsConfig `yaml:"physics"`
	Paddle  PaddleConfig  `yaml:"paddle"`
	Net     NetConfig     `yaml:"net"`
	Match   MatchConfig   `yaml:"match"`
}

// CourtConfig defines the play-space geometry. Distances are meters,
// the z axis runs along the table length.
type CourtConfig struct {
	HalfLength   float64 `yaml:"half_length"`
	HalfWidth    float64 `yaml:"half_width"`
	TableHeight  float64 `yaml:"table_height"`
	NetHeight    float64 `yaml:"net_height"`
	BoundsMargin float64 `yaml:"bounds_margin"` // past the end line but still live
	KillPlaneY   float64 `yaml:"kill_plane_y"`
}

// PhysicsConfig defines ball simulation parameters for the owning peer.
type PhysicsConfig struct {
	Gravity         float64 `yaml:"gravity"`
	Restitution     float64 `yaml:"restitution"`
	MaxSpeed        float64 `yaml:"max_speed"`
	VerticalCapFrac float64 `yaml:"vertical_cap_frac"` // upward speed cap as a fraction of max_speed
	RallyAccel      float64 `yaml:"rally_accel"`       // speed multiplier per paddle return
	ServeSpeed      float64 `yaml:"serve_speed"`
	ServeLift       float64 `yaml:"serve_lift"`
}

// PaddleConfig defines paddle extents and how input moves them.
type PaddleConfig struct {
	HalfWidth  float64 `yaml:"half_width"`
	HalfHeight float64 `yaml:"half_height"`
	MoveSpeed  float64 `yaml:"move_speed"` // meters per second under held input
	Impulse    float64 `yaml:"impulse"`    // fraction of paddle velocity transferred on hit
}

// NetConfig defines replication cadence and transfer protocol timing.
type NetConfig struct {
	TickRate         int     `yaml:"tick_rate"`
	PublishEvery     int     `yaml:"publish_every"` // ball sample every Nth tick
	SmoothingRate    float64 `yaml:"smoothing_rate"`
	SnapDistance     float64 `yaml:"snap_distance"`
	DelayClampMs     int     `yaml:"delay_clamp_ms"`
	CooldownMs       int     `yaml:"transfer_cooldown_ms"`
	AckTimeoutMs     int     `yaml:"ack_timeout_ms"`
	InboundPerSecond float64 `yaml:"inbound_per_second"` // wire message rate guard
	InboundBurst     int     `yaml:"inbound_burst"`
}

// MatchConfig defines scoring rules and phase timing.
type MatchConfig struct {
	WinThreshold    int `yaml:"win_threshold"`
	CountdownSteps  int `yaml:"countdown_steps"`
	CountdownStepMs int `yaml:"countdown_step_ms"`
	WinnerBannerMs  int `yaml:"winner_banner_ms"`
	ResetNoticeMs   int `yaml:"reset_notice_ms"`
}

// MatchPreset represents a named rule set.
type MatchPreset string

const (
	PresetQuick    MatchPreset = "quick"
	PresetStandard MatchPreset = "standard"
	PresetClassic  MatchPreset = "classic"
)

// WinThresholdForPreset returns the target score for a preset.
func WinThresholdForPreset(preset MatchPreset) int {
	switch preset {
	case PresetQuick:
		return 5
	case PresetClassic:
		return 21
	default:
		return 11
	}
}

// ApplyPreset adjusts match rules for a named preset. Unknown presets
// fall back to standard rules.
func ApplyPreset(cfg *Config, preset MatchPreset) {
	cfg.Match.WinThreshold = WinThresholdForPreset(preset)
	if preset == PresetQuick {
		cfg.Match.WinnerBannerMs = 3000
	}
}
