/*
DESCRIPTION
  calibration.go provides the runtime adjustable calibration factor applied
  to the pixel to mm conversion.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package track

// Calibration defaults.
const (
	DefaultCalibrationFactor = 2.755
	DefaultCalibrationStep   = 0.1
	DefaultCalibrationFloor  = 0.1
)

// Calibration is a multiplicative correction on the pixel to mm conversion,
// adjusted in fixed steps and never decreased below Floor.
type Calibration struct {
	Factor float64
	Step   float64
	Floor  float64
}

// NewCalibration returns a calibration with the given starting factor and
// the default step and floor.
func NewCalibration(factor float64) *Calibration {
	return &Calibration{
		Factor: factor,
		Step:   DefaultCalibrationStep,
		Floor:  DefaultCalibrationFloor,
	}
}

// Increase adds one step to the factor and returns the new factor.
func (c *Calibration) Increase() float64 {
	c.Factor += c.Step
	return c.Factor
}

// Decrease subtracts one step from the factor, clamping at Floor, and
// returns the new factor.
func (c *Calibration) Decrease() float64 {
	c.Factor -= c.Step
	if c.Factor < c.Floor {
		c.Factor = c.Floor
	}
	return c.Factor
}
