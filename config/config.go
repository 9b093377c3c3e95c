// Package config holds the viewer settings read from viewer.yaml.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	ProjectionPerspective  = "perspective"
	ProjectionOrthographic = "orthographic"
	ProjectionOblique      = "oblique"
)

var ErrInvalidConfig = errors.New("invalid config")

// Orbit places the camera around Target looking at it. Angles are degrees.
type Orbit struct {
	Target   [3]float64 `yaml:"target" json:"target"`
	Distance float64    `yaml:"distance" json:"distance"`
	Pitch    float64    `yaml:"pitch" json:"pitch"`
	Yaw      float64    `yaml:"yaw" json:"yaw"`
}

type Camera struct {
	Projection string  `yaml:"projection" json:"projection"`
	Fov        float64 `yaml:"fov" json:"fov"`
	Near       float64 `yaml:"near" json:"near"`
	Far        float64 `yaml:"far" json:"far"`
	Size       float64 `yaml:"size" json:"size"`
	// Oblique receding axis angles in degrees, 90 leaves the axis unsheared.
	Theta    float64    `yaml:"theta" json:"theta"`
	Phi      float64    `yaml:"phi" json:"phi"`
	Position [3]float64 `yaml:"position" json:"position"`
	// Rotation in degrees, applied x then y then z around fixed axes.
	Rotation [3]float64 `yaml:"rotation" json:"rotation"`
	// Orbit overrides Position and Rotation when set.
	Orbit   *Orbit `yaml:"orbit,omitempty" json:"orbit,omitempty"`
	Shading bool   `yaml:"shading" json:"shading"`
}

type Animation struct {
	Play bool `yaml:"play"`
	// Name selects the animation, the first one is used when empty.
	Name          string `yaml:"name"`
	Interpolation string `yaml:"interpolation"`
}

type Controls struct {
	MoveRate   float64 `yaml:"move_rate"`
	RotateRate float64 `yaml:"rotate_rate"`
}

type Config struct {
	Listen    string    `yaml:"listen"`
	Web       string    `yaml:"web"`
	Model     string    `yaml:"model"`
	Watch     bool      `yaml:"watch"`
	FPS       int       `yaml:"fps"`
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	Camera    Camera    `yaml:"camera"`
	Controls  Controls  `yaml:"controls"`
	Animation Animation `yaml:"animation"`
}

func Default() *Config {
	return &Config{
		Listen: ":8000",
		Web:    "web",
		FPS:    30,
		Width:  640,
		Height: 480,
		Camera: Camera{
			Projection: ProjectionPerspective,
			Fov:        90,
			Near:       0.05,
			Far:        100,
			Size:       20,
			Theta:      45,
			Phi:        45,
			Position:   [3]float64{0, 0, -5},
			Shading:    true,
		},
		Controls: Controls{
			MoveRate:   1,
			RotateRate: 1,
		},
		Animation: Animation{
			Play:          true,
			Interpolation: "slerp",
		},
	}
}

// Validate rejects values the frame loop cannot run with.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "fps %d", c.FPS)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "size %dx%d", c.Width, c.Height)
	}
	switch c.Camera.Projection {
	case ProjectionPerspective:
		if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
			return errors.Wrapf(ErrInvalidConfig, "camera fov %v", c.Camera.Fov)
		}
	case ProjectionOrthographic:
		if c.Camera.Size <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "camera size %v", c.Camera.Size)
		}
	case ProjectionOblique:
		if c.Camera.Size <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "camera size %v", c.Camera.Size)
		}
		for _, a := range []float64{c.Camera.Theta, c.Camera.Phi} {
			if a <= 0 || a >= 180 {
				return errors.Wrapf(ErrInvalidConfig, "camera oblique angle %v", a)
			}
		}
	default:
		return errors.Wrapf(ErrInvalidConfig, "camera projection %q", c.Camera.Projection)
	}
	if c.Camera.Near == c.Camera.Far {
		return errors.Wrapf(ErrInvalidConfig, "camera near == far (%v)", c.Camera.Near)
	}
	if o := c.Camera.Orbit; o != nil && o.Distance <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "camera orbit distance %v", o.Distance)
	}
	return nil
}

// Decode reads yaml over the defaults, so missing keys keep default values.
func Decode(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "Failed to parse config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read config %q", path)
	}
	c, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %q", path)
	}
	return c, nil
}

// Save writes the config as two space indented yaml.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrapf(err, "Failed to encode config")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrapf(err, "Failed to encode config")
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0644), "Failed to write config %q", path)
}
