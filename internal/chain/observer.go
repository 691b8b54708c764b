package chain

import "time"

// Status is the outcome of one configured plugin.
type Status string

const (
	StatusDisabled  Status = "disabled"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// StageEvent describes one evaluated plugin. Disabled plugins have Index 0
// and no input or output.
type StageEvent struct {
	Index    int
	Label    string
	Plugin   string
	Input    string
	Output   string
	Status   Status
	Duration time.Duration
	Err      error
}

// Observer is notified after every evaluated plugin and once when the chain
// ends. Observers must not fail the chain; they log their own errors.
type Observer interface {
	StageFinished(ev StageEvent)
	ChainFinished(res Result, err error)
}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) StageFinished(ev StageEvent) {
	for _, obs := range o {
		obs.StageFinished(ev)
	}
}

func (o Observers) ChainFinished(res Result, err error) {
	for _, obs := range o {
		obs.ChainFinished(res, err)
	}
}
