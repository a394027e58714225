package pipeline

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/archiforge/cadrecon/pkg/entity"
)

// Config carries every tunable tolerance the pipeline stages need, plus the
// semantic layer map. All distances are millimetres unless noted.
type Config struct {
	// Layers maps raw CAD layer names to their structural roles.
	Layers entity.LayerMap `yaml:"layers" json:"layers"`

	Viewport ViewportConfig `yaml:"viewport" json:"viewport"`
	Wall     WallConfig     `yaml:"wall" json:"wall"`
	Beam     BeamConfig     `yaml:"beam" json:"beam"`
	Junction JunctionConfig `yaml:"junction" json:"junction"`
}

// ViewportConfig tunes S1/S2.
type ViewportConfig struct {
	ClusterTolerance float64 `yaml:"clusterTolerance" json:"clusterTolerance"`
	TitleStep        float64 `yaml:"titleStep" json:"titleStep"`
	TitleMaxRadius   float64 `yaml:"titleMaxRadius" json:"titleMaxRadius"`
	GridAlignTol     float64 `yaml:"gridAlignTol" json:"gridAlignTol"` // "|dy|<10 or |dx|<10"
	VoteQuantise     float64 `yaml:"voteQuantise" json:"voteQuantise"`
}

// WallConfig tunes S3.
type WallConfig struct {
	StandardThicknesses []float64 `yaml:"standardThicknesses" json:"standardThicknesses"`
	FallbackThicknesses []float64 `yaml:"fallbackThicknesses" json:"fallbackThicknesses"`
	ThicknessRoundTo    float64   `yaml:"thicknessRoundTo" json:"thicknessRoundTo"`
	MinGap              float64   `yaml:"minGap" json:"minGap"`
	MaxGap              float64   `yaml:"maxGap" json:"maxGap"`
	MatchTolerance      float64   `yaml:"matchTolerance" json:"matchTolerance"`
	SupportLateralSlack float64   `yaml:"supportLateralSlack" json:"supportLateralSlack"`
	SupportMinOverlap   float64   `yaml:"supportMinOverlap" json:"supportMinOverlap"`
}

// BeamConfig tunes S4/S5/S6. MinGap and MaxGap are validated but not read
// by any stage; Step 1's pair scan uses fixed 10/1200 mm bounds.
type BeamConfig struct {
	MinSideLength       float64 `yaml:"minSideLength" json:"minSideLength"`
	MinGap              float64 `yaml:"minGap" json:"minGap"`
	MaxGap              float64 `yaml:"maxGap" json:"maxGap"`
	GapTolerance        float64 `yaml:"gapTolerance" json:"gapTolerance"`
	FallbackGapMin      float64 `yaml:"fallbackGapMin" json:"fallbackGapMin"`
	FallbackGapMax      float64 `yaml:"fallbackGapMax" json:"fallbackGapMax"`
	MinOverlap          float64 `yaml:"minOverlap" json:"minOverlap"`
	ObstacleCutFraction float64 `yaml:"obstacleCutFraction" json:"obstacleCutFraction"`
	ObstacleCutMin      float64 `yaml:"obstacleCutMin" json:"obstacleCutMin"`
	MinFragmentLength   float64 `yaml:"minFragmentLength" json:"minFragmentLength"`
	CollinearStitchGap  float64 `yaml:"collinearStitchGap" json:"collinearStitchGap"`
	CollinearMergeGap   float64 `yaml:"collinearMergeGap" json:"collinearMergeGap"`
	OffsetTolerance     float64 `yaml:"offsetTolerance" json:"offsetTolerance"`
	WidthDiffTolerance  float64 `yaml:"widthDiffTolerance" json:"widthDiffTolerance"`
	AnchorProbe         float64 `yaml:"anchorProbe" json:"anchorProbe"`
	ParallelMergeSlack  float64 `yaml:"parallelMergeSlack" json:"parallelMergeSlack"`
	LabelHitTolerance   float64 `yaml:"labelHitTolerance" json:"labelHitTolerance"`
	RunOffsetTolerance  float64 `yaml:"runOffsetTolerance" json:"runOffsetTolerance"`
	RunSampleStep       float64 `yaml:"runSampleStep" json:"runSampleStep"`
	FallbackWidth       float64 `yaml:"fallbackWidth" json:"fallbackWidth"`
	FallbackHeight      float64 `yaml:"fallbackHeight" json:"fallbackHeight"`
}

// JunctionConfig tunes junction clustering and cutting in S5/S7.
// WidthWinMargin, HeightWinMargin and MaxGlobalPasses are validated but not
// read by any stage; Step 4 uses a fixed 10 mm win margin and 3 passes.
type JunctionConfig struct {
	ClusterGrid        float64 `yaml:"clusterGrid" json:"clusterGrid"`
	ArmExtentTolerance float64 `yaml:"armExtentTolerance" json:"armExtentTolerance"`
	CutEdgeTolerance   float64 `yaml:"cutEdgeTolerance" json:"cutEdgeTolerance"`
	WidthWinMargin     float64 `yaml:"widthWinMargin" json:"widthWinMargin"`
	HeightWinMargin    float64 `yaml:"heightWinMargin" json:"heightWinMargin"`
	MaxGlobalPasses    int     `yaml:"maxGlobalPasses" json:"maxGlobalPasses"`
}

// DefaultConfig returns the pipeline's literal default tolerances.
func DefaultConfig() *Config {
	return &Config{
		Layers: entity.LayerMap{},
		Viewport: ViewportConfig{
			ClusterTolerance: 5000,
			TitleStep:        500,
			TitleMaxRadius:   25000,
			GridAlignTol:     10,
			VoteQuantise:     50,
		},
		Wall: WallConfig{
			StandardThicknesses: []float64{100, 120, 150, 180, 200, 240, 250, 300, 350, 370, 400, 500, 600},
			FallbackThicknesses: []float64{100, 200, 240},
			ThicknessRoundTo:    10,
			MinGap:              50,
			MaxGap:              800,
			MatchTolerance:      10,
			SupportLateralSlack: 200,
			SupportMinOverlap:   50,
		},
		Beam: BeamConfig{
			MinSideLength:       200,
			MinGap:              10,
			MaxGap:              1200,
			GapTolerance:        2.5,
			FallbackGapMin:      100,
			FallbackGapMax:      1000,
			MinOverlap:          50,
			ObstacleCutFraction: 0.02,
			ObstacleCutMin:      5,
			MinFragmentLength:   10,
			CollinearStitchGap:  2,
			CollinearMergeGap:   600,
			OffsetTolerance:     50,
			WidthDiffTolerance:  100,
			AnchorProbe:         5,
			ParallelMergeSlack:  50,
			LabelHitTolerance:   20,
			RunOffsetTolerance:  200,
			RunSampleStep:       50,
			FallbackWidth:       300,
			FallbackHeight:      600,
		},
		Junction: JunctionConfig{
			ClusterGrid:        200,
			ArmExtentTolerance: 150,
			CutEdgeTolerance:   10,
			WidthWinMargin:     10,
			HeightWinMargin:    10,
			MaxGlobalPasses:    3,
		},
	}
}

// Validate checks every section's tolerances for internal consistency
// before a run starts, following a validate-then-hash config
// contract.
func (c *Config) Validate() error {
	if len(c.Layers) == 0 {
		return errors.New("layers: at least one layer role mapping must be specified")
	}
	if err := c.Viewport.Validate(); err != nil {
		return fmt.Errorf("viewport: %w", err)
	}
	if err := c.Wall.Validate(); err != nil {
		return fmt.Errorf("wall: %w", err)
	}
	if err := c.Beam.Validate(); err != nil {
		return fmt.Errorf("beam: %w", err)
	}
	if err := c.Junction.Validate(); err != nil {
		return fmt.Errorf("junction: %w", err)
	}
	return nil
}

// Validate checks ViewportConfig constraints.
func (v *ViewportConfig) Validate() error {
	if v.ClusterTolerance <= 0 {
		return fmt.Errorf("clusterTolerance must be positive, got %f", v.ClusterTolerance)
	}
	if v.TitleStep <= 0 || v.TitleMaxRadius <= 0 {
		return errors.New("titleStep and titleMaxRadius must be positive")
	}
	if v.TitleStep > v.TitleMaxRadius {
		return fmt.Errorf("titleStep (%f) must be <= titleMaxRadius (%f)", v.TitleStep, v.TitleMaxRadius)
	}
	return nil
}

// Validate checks WallConfig constraints.
func (w *WallConfig) Validate() error {
	if len(w.StandardThicknesses) == 0 {
		return errors.New("standardThicknesses must not be empty")
	}
	if w.MinGap < 0 || w.MaxGap <= 0 {
		return errors.New("minGap must be non-negative and maxGap must be positive")
	}
	if w.MinGap > w.MaxGap {
		return fmt.Errorf("minGap (%f) must be <= maxGap (%f)", w.MinGap, w.MaxGap)
	}
	return nil
}

// Validate checks BeamConfig constraints.
func (b *BeamConfig) Validate() error {
	if b.MinSideLength <= 0 {
		return fmt.Errorf("minSideLength must be positive, got %f", b.MinSideLength)
	}
	if b.MinGap < 0 || b.MaxGap <= 0 || b.MinGap > b.MaxGap {
		return fmt.Errorf("minGap (%f) must be non-negative and <= maxGap (%f)", b.MinGap, b.MaxGap)
	}
	if b.MinFragmentLength <= 0 {
		return fmt.Errorf("minFragmentLength must be positive, got %f", b.MinFragmentLength)
	}
	if b.FallbackWidth <= 0 || b.FallbackHeight <= 0 {
		return errors.New("fallbackWidth and fallbackHeight must be positive")
	}
	return nil
}

// Validate checks JunctionConfig constraints.
func (j *JunctionConfig) Validate() error {
	if j.ClusterGrid <= 0 {
		return fmt.Errorf("clusterGrid must be positive, got %f", j.ClusterGrid)
	}
	if j.MaxGlobalPasses < 1 {
		return fmt.Errorf("maxGlobalPasses must be at least 1, got %d", j.MaxGlobalPasses)
	}
	return nil
}

// LoadConfig reads and parses a YAML layer-map/tolerance configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return cfg, nil
}

// Hash returns a stable digest of cfg's YAML encoding, usable to key caches
// of stage output across otherwise-identical runs.
func (c *Config) Hash() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}
	h := sha256.Sum256(data)
	return h[:], nil
}
