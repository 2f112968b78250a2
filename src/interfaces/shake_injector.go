package interfaces

// -----------------------------------------------------------------------------
// IShakeInjector triggers a synthetic gesture on drivers that support it.
// -----------------------------------------------------------------------------

type IShakeInjector interface {

	// InjectShake queues one synthetic shake burst on the sensor feed.
	InjectShake()
}
