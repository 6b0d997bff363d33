package effects

import "math"

// CompressorParams describe a feed-forward peak compressor.
type CompressorParams struct {
	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
	GainDB      float64
}

// ClickCompressor is tuned for short hit sounds: instant attack, slow release.
func ClickCompressor() CompressorParams {
	return CompressorParams{ThresholdDB: -15, Ratio: 3, AttackMs: 0, ReleaseMs: 200, GainDB: 5}
}

// Compressor reduces gain above a threshold. Both channels share one envelope
// so the stereo image does not shift.
type Compressor struct {
	threshold float32
	slope     float32
	attack    float32
	release   float32
	makeup    float32
	env       float32
}

func NewCompressor(sampleRate int, p CompressorParams) *Compressor {
	ratio := p.Ratio
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: float32(dbToGain(p.ThresholdDB)),
		slope:     float32(1/ratio - 1),
		attack:    coefficient(p.AttackMs, sampleRate),
		release:   coefficient(p.ReleaseMs, sampleRate),
		makeup:    float32(dbToGain(p.GainDB)),
	}
}

// coefficient is the one-pole smoothing factor for a time constant; zero
// time follows the input immediately.
func coefficient(ms float64, sampleRate int) float32 {
	if ms <= 0 || sampleRate <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(ms*float64(sampleRate)/1000)))
}

func dbToGain(db float64) float64 { return math.Pow(10, db/20) }

func (c *Compressor) Process(l, r float32) (float32, float32) {
	peak := max(abs32(l), abs32(r))
	if peak > c.env {
		c.env += c.attack * (peak - c.env)
	} else {
		c.env += c.release * (peak - c.env)
	}
	g := c.gain() * c.makeup
	return l * g, r * g
}

// gain is the reduction for the current envelope.
func (c *Compressor) gain() float32 {
	if c.env <= c.threshold || c.threshold <= 0 {
		return 1
	}
	return float32(math.Pow(float64(c.env/c.threshold), float64(c.slope)))
}

func (c *Compressor) Reset() { c.env = 0 }

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
