package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-platformer/backend/internal/config"
)

// View - то, что нужно клиенту для отрисовки кадра
type View struct {
	Position [3]float64 `json:"position"`
	LookAt   [3]float64 `json:"look_at"`
	Theta    float64    `json:"theta"`
	Phi      float64    `json:"phi"`
	Distance float64    `json:"distance"`
}

// Orbit - камера третьего лица на сфере вокруг цели.
// theta - горизонтальный угол, phi - полярный угол от вертикали.
type Orbit struct {
	cfg config.CameraConfig

	distance float64
	theta    float64
	phi      float64

	position mgl64.Vec3
	lookAt   mgl64.Vec3
	placed   bool // Первый FollowTarget ставит камеру сразу, без сглаживания
}

func NewOrbit(cfg config.CameraConfig) *Orbit {
	o := &Orbit{cfg: cfg}
	o.distance = mgl64.Clamp(cfg.Distance, cfg.MinDistance, cfg.MaxDistance)
	o.phi = mgl64.Clamp(cfg.PolarAngle, cfg.MinPolarAngle, cfg.MaxPolarAngle)
	return o
}

// HandleInput применяет ввод за кадр. Мышь вращает камеру только при
// захваченном указателе, колесо меняет дистанцию всегда.
func (o *Orbit) HandleInput(mouseDX, mouseDY, wheel float64, locked bool) {
	if locked {
		o.theta -= mouseDX * o.cfg.Sensitivity
		o.phi -= mouseDY * o.cfg.Sensitivity
		o.theta = wrapAngle(o.theta)
	}
	o.distance += wheel * o.cfg.ZoomSpeed

	o.phi = mgl64.Clamp(o.phi, o.cfg.MinPolarAngle, o.cfg.MaxPolarAngle)
	o.distance = mgl64.Clamp(o.distance, o.cfg.MinDistance, o.cfg.MaxDistance)
}

// FollowTarget сглаженно подводит камеру к сферическому смещению от цели.
// targetRot не используется: орбита задается только мышью.
func (o *Orbit) FollowTarget(target mgl64.Vec3, targetRot mgl64.Quat, dt float64) {
	desired := target.Add(o.offset())
	look := target.Add(mgl64.Vec3{0, o.cfg.LookAtHeight, 0})

	if !o.placed {
		o.position, o.lookAt, o.placed = desired, look, true
		return
	}

	t := SmoothFactor(dt, o.cfg.SmoothSpeed)
	o.position = lerp(o.position, desired, t)
	o.lookAt = lerp(o.lookAt, look, t)
}

// SmoothFactor - коэффициент интерполяции, не зависящий от частоты кадров
func SmoothFactor(dt, speed float64) float64 {
	if dt <= 0 {
		return 0
	}
	return 1 - math.Pow(0.001, dt*speed)
}

func (o *Orbit) offset() mgl64.Vec3 {
	sinPhi := math.Sin(o.phi)
	return mgl64.Vec3{
		o.distance * sinPhi * math.Sin(o.theta),
		o.distance * math.Cos(o.phi),
		o.distance * sinPhi * math.Cos(o.theta),
	}
}

// OrbitAngle возвращает горизонтальный угол для управления относительно камеры
func (o *Orbit) OrbitAngle() float64 { return o.theta }

func (o *Orbit) PolarAngle() float64 { return o.phi }

func (o *Orbit) Distance() float64 { return o.distance }

func (o *Orbit) Position() mgl64.Vec3 { return o.position }

func (o *Orbit) LookAt() mgl64.Vec3 { return o.lookAt }

// View возвращает состояние камеры для отправки клиенту
func (o *Orbit) View() View {
	return View{
		Position: o.position,
		LookAt:   o.lookAt,
		Theta:    o.theta,
		Phi:      o.phi,
		Distance: o.distance,
	}
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
