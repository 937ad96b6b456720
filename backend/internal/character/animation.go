package character

import "math"

const (
	walkFrequency  = 10.0
	runFrequency   = 15.0
	swingAmplitude = 0.6
)

// pose - повороты конечностей по X (взмах) и Z (разведение)
type pose struct {
	armX, armZ float64
	legX       float64
}

var staticPoses = map[State]pose{
	Jumping:     {armX: -2.6, legX: 0.4},
	DoubleJump:  {armX: -2.6, armZ: 0.6, legX: 0.6},
	TripleJump:  {armX: -3.0, armZ: 1.2, legX: 0.9},
	Falling:     {armZ: 1.2, legX: -0.2},
	GroundPound: {armX: 0.4, armZ: -0.3, legX: -1.3},
}

// animate выставляет позу конечностей по текущему состоянию
func (p *Player) animate() {
	l := p.limbs
	if l.leftArm == nil {
		return
	}

	if p.state == Running {
		freq := walkFrequency
		if p.controls.Run() {
			freq = runFrequency
		}
		swing := math.Sin(p.elapsed*freq) * swingAmplitude
		l.leftArm.SetEuler(swing, 0, 0)
		l.rightArm.SetEuler(-swing, 0, 0)
		l.leftLeg.SetEuler(-swing, 0, 0)
		l.rightLeg.SetEuler(swing, 0, 0)
		return
	}

	// idle и неизвестные состояния - поза покоя
	ps := staticPoses[p.state]
	l.leftArm.SetEuler(ps.armX, 0, ps.armZ)
	l.rightArm.SetEuler(ps.armX, 0, -ps.armZ)
	l.leftLeg.SetEuler(ps.legX, 0, 0)
	l.rightLeg.SetEuler(ps.legX, 0, 0)
}
