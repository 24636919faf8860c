package bid

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/logging"
)

// Mover sends the bid the flow settles on.
type Mover interface {
	Bid1(ctx context.Context, call bool, alone bool) error
	Bid2(ctx context.Context, call bool, trump *cards.Suit, alone bool) error
}

// Decision is what a finished flow emitted.
type Decision struct {
	Round Round
	Call  bool
	Trump *cards.Suit
	Alone bool
}

func (d Decision) String() string {
	if !d.Call {
		return fmt.Sprintf("bid%d pass", d.Round)
	}
	trump := "upcard"
	if d.Trump != nil {
		trump = d.Trump.String()
	}
	return fmt.Sprintf("bid%d call trump=%s alone=%v", d.Round, trump, d.Alone)
}

// Flow turns the clicks of one bid opportunity into exactly one bid call.
// The transition table is the only way to move between stages; clicks that
// are not valid for the current stage are returned as errors.
type Flow struct {
	logger *zerolog.Logger
	mover  Mover
	round  Round
	sm     *fsm.FSM

	trump   *cards.Suit
	emitted *Decision
}

// NewFlow creates a flow for the round, starting at CALL.
func NewFlow(round Round, mover Mover, logger *zerolog.Logger) *Flow {
	if logger == nil {
		logger = logging.Nop()
	}
	f := &Flow{logger: logger, mover: mover}
	f.Reset(round)
	return f
}

func (f *Flow) SetLogger(logger *zerolog.Logger) {
	f.logger = logger
}

// Reset discards any partial decision and starts a new opportunity at CALL.
func (f *Flow) Reset(round Round) {
	f.round = round
	f.trump = nil
	f.emitted = nil
	f.sm = fsm.NewFSM(
		Stage__CALL,
		transitions(round),
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) { f.enterState(e) },
		},
	)
}

func transitions(round Round) fsm.Events {
	events := fsm.Events{
		{
			Name: Event__PASS,
			Src:  []string{Stage__CALL},
			Dst:  Stage__DONE,
		},
		{
			Name: Event__GO_ALONE,
			Src:  []string{Stage__ALONE},
			Dst:  Stage__DONE,
		},
	}
	if round == Round1 {
		return append(events, fsm.EventDesc{
			Name: Event__PICK_UP,
			Src:  []string{Stage__CALL},
			Dst:  Stage__ALONE,
		})
	}
	return append(events,
		fsm.EventDesc{
			Name: Event__NAME_TRUMP,
			Src:  []string{Stage__CALL},
			Dst:  Stage__TRUMP_SELECT,
		},
		fsm.EventDesc{
			Name: Event__SELECT_TRUMP,
			Src:  []string{Stage__TRUMP_SELECT},
			Dst:  Stage__ALONE,
		},
	)
}

func (f *Flow) enterState(e *fsm.Event) {
	f.logger.Debug().Msgf("Bid flow [%s] ===> [%s]", e.Src, e.Dst)
}

// Round returns the round the flow was opened for.
func (f *Flow) Round() Round {
	return f.round
}

// Stage returns the current stage.
func (f *Flow) Stage() string {
	return f.sm.Current()
}

// Done reports whether the flow has emitted its call.
func (f *Flow) Done() bool {
	return f.sm.Current() == Stage__DONE
}

// Emitted returns the decision sent, if any.
func (f *Flow) Emitted() (Decision, bool) {
	if f.emitted == nil {
		return Decision{}, false
	}
	return *f.emitted, true
}

// Options lists the buttons available in the current stage.
func (f *Flow) Options() []string {
	switch f.sm.Current() {
	case Stage__CALL:
		if f.round == Round1 {
			return []string{LabelPickUp, LabelPass}
		}
		return []string{LabelNameTrump, LabelPass}
	case Stage__TRUMP_SELECT:
		opts := make([]string, 0, len(cards.Suits))
		for _, s := range cards.Suits {
			opts = append(opts, s.String())
		}
		return opts
	case Stage__ALONE:
		return []string{LabelYes, LabelNo}
	}
	return nil
}

func (f *Flow) event(name string) error {
	err := f.sm.Event(name)
	if err != nil {
		return errors.Wrapf(err, "bid flow cannot %s in stage %s", name, f.sm.Current())
	}
	return nil
}

// PickUp orders up the upcard (round 1).
func (f *Flow) PickUp() error {
	return f.event(Event__PICK_UP)
}

// NameTrump opens the suit picker (round 2).
func (f *Flow) NameTrump() error {
	return f.event(Event__NAME_TRUMP)
}

// SelectTrump chooses the suit to call (round 2).
func (f *Flow) SelectTrump(suit cards.Suit) error {
	if err := f.event(Event__SELECT_TRUMP); err != nil {
		return err
	}
	f.trump = &suit
	return nil
}

// Pass ends the opportunity without calling.
func (f *Flow) Pass(ctx context.Context) error {
	if err := f.event(Event__PASS); err != nil {
		return err
	}
	return f.emit(ctx, Decision{Round: f.round})
}

// GoAlone answers the alone question and sends the call.
func (f *Flow) GoAlone(ctx context.Context, alone bool) error {
	if err := f.event(Event__GO_ALONE); err != nil {
		return err
	}
	return f.emit(ctx, Decision{Round: f.round, Call: true, Trump: f.trump, Alone: alone})
}

// Click dispatches a button label to the matching transition.
func (f *Flow) Click(ctx context.Context, label string) error {
	switch label {
	case LabelPickUp:
		return f.PickUp()
	case LabelNameTrump:
		return f.NameTrump()
	case LabelPass:
		return f.Pass(ctx)
	case LabelYes:
		return f.GoAlone(ctx, true)
	case LabelNo:
		return f.GoAlone(ctx, false)
	}
	suit, err := cards.ParseSuit(label)
	if err != nil {
		return errors.Errorf("unknown bid button '%s'", label)
	}
	return f.SelectTrump(suit)
}

func (f *Flow) emit(ctx context.Context, d Decision) error {
	f.emitted = &d
	f.logger.Info().Msgf("Sending %s", d)
	var err error
	if d.Round == Round1 {
		err = f.mover.Bid1(ctx, d.Call, d.Alone)
	} else {
		err = f.mover.Bid2(ctx, d.Call, d.Trump, d.Alone)
	}
	if err != nil {
		return errors.Wrap(err, "bid call failed")
	}
	return nil
}
