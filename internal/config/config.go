package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/spf13/viper"
)

type WorkerConfig struct {
	Count      int    `mapstructure:"count"`
	RTCMinPort uint16 `mapstructure:"rtc_min_port"`
	RTCMaxPort uint16 `mapstructure:"rtc_max_port"`
	LogLevel   string `mapstructure:"log_level"`
}

type WebRTCConfig struct {
	ListenIP               string `mapstructure:"listen_ip"`
	AnnouncedIP            string `mapstructure:"announced_ip"`
	EnableUDP              bool   `mapstructure:"enable_udp"`
	EnableTCP              bool   `mapstructure:"enable_tcp"`
	PreferUDP              bool   `mapstructure:"prefer_udp"`
	InitialOutgoingBitrate uint64 `mapstructure:"initial_outgoing_bitrate"`
}

type CodecConfig struct {
	MimeType    string `mapstructure:"mime_type"`
	ClockRate   uint32 `mapstructure:"clock_rate"`
	Channels    uint16 `mapstructure:"channels"`
	SDPFmtpLine string `mapstructure:"sdp_fmtp_line"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	Worker     WorkerConfig  `mapstructure:"worker"`
	WebRTC     WebRTCConfig  `mapstructure:"webrtc"`
	Codecs     []CodecConfig `mapstructure:"codecs"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("worker.count", 0)
	v.SetDefault("worker.rtc_min_port", 40000)
	v.SetDefault("worker.rtc_max_port", 41000)
	v.SetDefault("worker.log_level", "warn")
	v.SetDefault("webrtc.listen_ip", "127.0.0.1")
	v.SetDefault("webrtc.enable_udp", true)
	v.SetDefault("webrtc.enable_tcp", true)
	v.SetDefault("webrtc.prefer_udp", true)
	v.SetDefault("webrtc.initial_outgoing_bitrate", 5_000_000)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Codecs) == 0 {
		cfg.Codecs = DefaultCodecs()
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Workers: %d\n", cfg.Mode, cfg.Port, cfg.Worker.Count)
	return &cfg, nil
}

// DefaultCodecs is the accepted media codec set when none is configured:
// opus for audio, H264 and VP8 for video.
func DefaultCodecs() []CodecConfig {
	return []CodecConfig{
		{MimeType: "audio/opus", ClockRate: 48000, Channels: 2},
		{MimeType: "video/H264", ClockRate: 90000, SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f"},
		{MimeType: "video/VP8", ClockRate: 90000},
	}
}

// RTPCodecCapabilities converts the configured codec set to the engine's
// vocabulary.
func (c *Config) RTPCodecCapabilities() []webrtc.RTPCodecCapability {
	out := make([]webrtc.RTPCodecCapability, 0, len(c.Codecs))
	for _, cc := range c.Codecs {
		out = append(out, webrtc.RTPCodecCapability{
			MimeType:    cc.MimeType,
			ClockRate:   cc.ClockRate,
			Channels:    cc.Channels,
			SDPFmtpLine: cc.SDPFmtpLine,
		})
	}
	return out
}
