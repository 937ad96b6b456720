package transport

// LoopStatus - то, что транспорт знает о состоянии игрового цикла
type LoopStatus interface {
	IsRunning() bool
}
