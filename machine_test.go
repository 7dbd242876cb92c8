package lightfsm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasols/light-fsm/internal/ir"
)

func TestNew_InitialSnapshot(t *testing.T) {
	machine, err := New(Config{
		Initial: "idle",
		States: []StateDef{
			{ID: "idle", On: map[EventType]TransitionSpec{"START": StateID("running")}},
			{ID: "running"},
		},
	})
	require.NoError(t, err)

	snap := machine.Snapshot()
	assert.Equal(t, StateID("idle"), snap.Value)
	assert.Equal(t, StateID(""), snap.Prev)
	assert.False(t, snap.Done)
	assert.Equal(t, EventType(""), snap.LastEvent.Type)
	assert.Equal(t, StateID("idle"), machine.State())
}

func TestNew_RunsInitialEntryWithEmptyPrev(t *testing.T) {
	var got []ActionArgs
	_, err := New(Config{
		Initial: "idle",
		States: []StateDef{
			{ID: "idle", Entry: func(a ActionArgs) { got = append(got, a) }},
		},
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, StateID(""), got[0].Prev)
	assert.Equal(t, StateID("idle"), got[0].Next)
}

func TestNew_EntryCascadeResolvesBeforeConstructionReturns(t *testing.T) {
	machine, err := New(Config{
		Initial: "boot",
		States: []StateDef{
			{
				ID: "boot",
				Entry: func(a ActionArgs) {
					a.Send(Event{Type: "READY"})
				},
				On: map[EventType]TransitionSpec{"READY": StateID("idle")},
			},
			{ID: "idle"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StateID("idle"), machine.State())

	// A subscriber attached after construction never observes the
	// initial cascade.
	var notified int
	machine.Subscribe(func(Snapshot) { notified++ })
	assert.Zero(t, notified)
}

func TestNew_RejectsUnknownInitial(t *testing.T) {
	_, err := New(Config{
		Initial: "gone",
		States:  []StateDef{{ID: "idle"}},
	})

	require.Error(t, err)
	var verr *ir.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestNew_RejectsUnreachableStates(t *testing.T) {
	_, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{"NEXT": StateID("a")}},
			{ID: "b"},
		},
	})

	require.Error(t, err)
	var uerr *ir.UnreachableError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Unreachable states detected: b", err.Error())
}

func TestNew_WithoutReachabilityCheck(t *testing.T) {
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{"NEXT": StateID("a")}},
			{ID: "b"},
		},
	}, WithoutReachabilityCheck())

	require.NoError(t, err)
	assert.Equal(t, StateID("a"), machine.State())
}

func TestSend_BasicTransition(t *testing.T) {
	machine, err := New(Config{
		Initial: "green",
		States: []StateDef{
			{ID: "green", On: map[EventType]TransitionSpec{"TIMER_END": StateID("yellow")}},
			{ID: "yellow", On: map[EventType]TransitionSpec{"TIMER_END": StateID("red")}},
			{ID: "red", On: map[EventType]TransitionSpec{"TIMER_END": StateID("green")}},
		},
	})
	require.NoError(t, err)

	res := machine.SendType("TIMER_END")
	assert.True(t, res.Changed)
	assert.Equal(t, StateID("yellow"), res.Snapshot.Value)
	assert.Equal(t, StateID("green"), res.Snapshot.Prev)
	assert.Equal(t, EventType("TIMER_END"), res.Snapshot.LastEvent.Type)

	machine.SendType("TIMER_END")
	assert.Equal(t, StateID("red"), machine.State())
}

func TestSend_NoTransitionInvokesCallback(t *testing.T) {
	var reported []error
	var contexts []InvalidContext
	machine, err := New(Config{
		Initial: "idle",
		States: []StateDef{
			{
				ID:   "idle",
				Exit: func(ActionArgs) { t.Fatal("exit must not run") },
				On:   map[EventType]TransitionSpec{"START": StateID("running")},
			},
			{ID: "running"},
		},
		HandleInvalidTransition: func(err error, ctx InvalidContext) {
			reported = append(reported, err)
			contexts = append(contexts, ctx)
		},
	})
	require.NoError(t, err)

	res := machine.Send(Event{Type: "UNKNOWN", Payload: 42})
	assert.False(t, res.Changed)
	assert.Equal(t, StateID("idle"), machine.State())

	require.Len(t, reported, 1)
	var iterr *InvalidTransitionError
	require.ErrorAs(t, reported[0], &iterr)
	assert.Equal(t, StateID("idle"), iterr.State)
	assert.True(t, errors.Is(reported[0], ErrInvalidTransition))
	assert.False(t, IsFinalState(reported[0]))

	require.Len(t, contexts, 1)
	assert.Equal(t, StateID("idle"), contexts[0].State)
	assert.Equal(t, EventType("UNKNOWN"), contexts[0].Event.Type)
	assert.Equal(t, 42, contexts[0].Event.Payload)
}

func TestSend_FinalStateRejectsAllEvents(t *testing.T) {
	var reported []error
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{"END": StateID("done")}},
			{
				ID:    "done",
				Final: true,
				// A final state's table is never consulted.
				On: map[EventType]TransitionSpec{"END": StateID("a")},
			},
		},
		HandleInvalidTransition: func(err error, ctx InvalidContext) {
			reported = append(reported, err)
		},
	})
	require.NoError(t, err)

	machine.SendType("END")
	require.Equal(t, StateID("done"), machine.State())
	assert.True(t, machine.Done())

	res := machine.SendType("END")
	assert.False(t, res.Changed)
	assert.Equal(t, StateID("done"), machine.State())

	require.Len(t, reported, 1)
	assert.True(t, IsFinalState(reported[0]))
	assert.True(t, errors.Is(reported[0], ErrInvalidTransition))
}

func TestSend_RejectionLeavesSnapshotUntouched(t *testing.T) {
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{"GO": StateID("b")}},
			{ID: "b"},
		},
	})
	require.NoError(t, err)

	machine.SendType("GO")
	before := machine.Snapshot()

	machine.SendType("NOPE")
	assert.Equal(t, before, machine.Snapshot())
}

func TestSend_GuardedChoiceFirstMatchWins(t *testing.T) {
	build := func(g1, g2 bool) *Machine {
		machine, err := New(Config{
			Initial: "start",
			States: []StateDef{
				{ID: "start", On: map[EventType]TransitionSpec{
					"GO": Choice{
						{To: "t1", Guard: "g1"},
						{To: "t2", Guard: "g2"},
						{To: "t3"},
					},
				}},
				{ID: "t1"}, {ID: "t2"}, {ID: "t3"},
			},
			Guards: map[GuardName]GuardValue{
				"g1": GuardBool(g1),
				"g2": GuardBool(g2),
			},
		})
		require.NoError(t, err)
		return machine
	}

	m := build(true, true)
	m.SendType("GO")
	assert.Equal(t, StateID("t1"), m.State())

	m = build(false, true)
	m.SendType("GO")
	assert.Equal(t, StateID("t2"), m.State())

	m = build(false, false)
	m.SendType("GO")
	assert.Equal(t, StateID("t3"), m.State())
}

func TestSend_GuardsExhaustedIsSilent(t *testing.T) {
	var reported []error
	machine, err := New(Config{
		Initial: "start",
		States: []StateDef{
			{ID: "start", On: map[EventType]TransitionSpec{
				"GO": Choice{
					{To: "t1", Guard: "no"},
					{To: "t2", Guard: "no"},
				},
			}},
			{ID: "t1"}, {ID: "t2"},
		},
		Guards: map[GuardName]GuardValue{"no": GuardBool(false)},
		HandleInvalidTransition: func(err error, ctx InvalidContext) {
			reported = append(reported, err)
		},
	}, WithoutReachabilityCheck())
	require.NoError(t, err)

	res := machine.SendType("GO")
	assert.False(t, res.Changed)
	assert.Equal(t, StateID("start"), machine.State())
	assert.Empty(t, reported, "guard exhaustion is normal flow, not an invalid transition")
}

func TestSend_GuardsExhaustedDoesNotFallBackToGlobal(t *testing.T) {
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{
				"GO": Target{To: "b", Guard: "no"},
			}},
			{ID: "b"}, {ID: "c"},
		},
		On:     map[EventType]TransitionSpec{"GO": StateID("c")},
		Guards: map[GuardName]GuardValue{"no": GuardBool(false)},
	}, WithoutReachabilityCheck())
	require.NoError(t, err)

	res := machine.SendType("GO")
	assert.False(t, res.Changed)
	assert.Equal(t, StateID("a"), machine.State())
}

func TestSend_GlobalTransitionFallback(t *testing.T) {
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{"GO": StateID("b")}},
			{ID: "b"},
			{ID: "err"},
		},
		On: map[EventType]TransitionSpec{"FAIL": StateID("err")},
	})
	require.NoError(t, err)

	machine.SendType("FAIL")
	assert.Equal(t, StateID("err"), machine.State())
}

func TestSend_InlineCondReceivesMachineState(t *testing.T) {
	var got []GuardArgs
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{"GO": StateID("b")}},
			{ID: "b", On: map[EventType]TransitionSpec{
				"GO": Target{
					To: "c",
					Cond: func(args GuardArgs) bool {
						got = append(got, args)
						return args.Event.Payload == "yes"
					},
				},
			}},
			{ID: "c"},
		},
	})
	require.NoError(t, err)

	machine.SendType("GO")

	res := machine.Send(Event{Type: "GO", Payload: "no"})
	assert.False(t, res.Changed)

	res = machine.Send(Event{Type: "GO", Payload: "yes"})
	assert.True(t, res.Changed)
	assert.Equal(t, StateID("c"), machine.State())

	require.Len(t, got, 2)
	assert.Equal(t, StateID("b"), got[0].Current)
	assert.Equal(t, StateID("a"), got[0].Prev)
}

func TestSend_PredicateGuardReevaluated(t *testing.T) {
	allowed := false
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{
				"GO": Target{To: "b", Guard: "allowed"},
			}},
			{ID: "b"},
		},
		Guards: map[GuardName]GuardValue{
			"allowed": GuardFunc(func() bool { return allowed }),
		},
	})
	require.NoError(t, err)

	res := machine.SendType("GO")
	assert.False(t, res.Changed)

	allowed = true
	res = machine.SendType("GO")
	assert.True(t, res.Changed)
	assert.Equal(t, StateID("b"), machine.State())
}

func TestSend_ActionOrderIsExitTransitionEntry(t *testing.T) {
	var order []string
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{
				ID:   "a",
				Exit: func(ActionArgs) { order = append(order, "exit(a)") },
				On: map[EventType]TransitionSpec{
					"GO": Target{
						To:     "b",
						Action: func(ActionArgs) { order = append(order, "action") },
					},
				},
			},
			{
				ID:    "b",
				Entry: func(ActionArgs) { order = append(order, "entry(b)") },
			},
		},
	})
	require.NoError(t, err)

	machine.SendType("GO")
	assert.Equal(t, []string{"exit(a)", "action", "entry(b)"}, order)
}

func TestSend_ActionArgsShape(t *testing.T) {
	var got []ActionArgs
	record := func(a ActionArgs) { got = append(got, a) }
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", Exit: record, On: map[EventType]TransitionSpec{
				"GO": Target{To: "b", Action: record},
			}},
			{ID: "b", Entry: record},
		},
	})
	require.NoError(t, err)

	machine.Send(Event{Type: "GO", Payload: "p"})

	require.Len(t, got, 3)
	for _, a := range got {
		assert.Equal(t, StateID("a"), a.Prev)
		assert.Equal(t, StateID("b"), a.Next)
		assert.Equal(t, EventType("GO"), a.Event.Type)
		assert.Equal(t, "p", a.Event.Payload)
		assert.NotNil(t, a.Send)
	}
}

func TestSend_SelfTransitionIsInert(t *testing.T) {
	var actions []string
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{
				ID:    "a",
				Entry: func(ActionArgs) { actions = append(actions, "entry") },
				Exit:  func(ActionArgs) { actions = append(actions, "exit") },
				On: map[EventType]TransitionSpec{
					"LOOP": Target{
						To:     "a",
						Action: func(ActionArgs) { actions = append(actions, "action") },
					},
					"GO": StateID("b"),
				},
			},
			{ID: "b"},
		},
	})
	require.NoError(t, err)
	actions = nil // drop the construction entry

	before := machine.Snapshot()
	res := machine.SendType("LOOP")

	assert.False(t, res.Changed)
	assert.Empty(t, actions)
	assert.Equal(t, before, machine.Snapshot())
}

func TestSend_SnapshotVisibleToActionsInBatch(t *testing.T) {
	var machine *Machine
	var valueDuringExit StateID

	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{
				ID: "a",
				// The snapshot mutation happens before any action runs,
				// so the exit action already sees the new state.
				Exit: func(a ActionArgs) {
					valueDuringExit = machine.State()
				},
				On: map[EventType]TransitionSpec{"GO": StateID("b")},
			},
			{ID: "b"},
		},
	})
	require.NoError(t, err)

	machine.SendType("GO")
	assert.Equal(t, StateID("b"), valueDuringExit)
}

func TestSend_ReentrantSendResolvesBeforeOuterReturns(t *testing.T) {
	var trace []string
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{"GO": StateID("b")}},
			{
				ID: "b",
				Entry: func(a ActionArgs) {
					trace = append(trace, "entry(b):before")
					nested := a.Send(Event{Type: "NEXT"})
					trace = append(trace, "entry(b):after")
					assert.True(t, nested.Changed)
					assert.Equal(t, StateID("c"), nested.Snapshot.Value)
				},
				On: map[EventType]TransitionSpec{"NEXT": StateID("c")},
			},
			{
				ID:    "c",
				Entry: func(ActionArgs) { trace = append(trace, "entry(c)") },
			},
		},
	})
	require.NoError(t, err)

	res := machine.SendType("GO")
	assert.True(t, res.Changed)
	assert.Equal(t, StateID("c"), machine.State())
	assert.Equal(t, StateID("c"), res.Snapshot.Value, "outer result reflects the cascade's end")
	assert.Equal(t, []string{"entry(b):before", "entry(c)", "entry(b):after"}, trace)
}

func TestSend_CascadeYieldsSingleNotification(t *testing.T) {
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{"GO": StateID("b")}},
			{
				ID:    "b",
				Entry: func(a ActionArgs) { a.Send(Event{Type: "NEXT"}) },
				On:    map[EventType]TransitionSpec{"NEXT": StateID("c")},
			},
			{
				ID:    "c",
				Entry: func(a ActionArgs) { a.Send(Event{Type: "NEXT"}) },
				On:    map[EventType]TransitionSpec{"NEXT": StateID("d")},
			},
			{ID: "d"},
		},
	})
	require.NoError(t, err)

	var notifications []Snapshot
	machine.Subscribe(func(s Snapshot) { notifications = append(notifications, s) })

	machine.SendType("GO")

	require.Len(t, notifications, 1)
	assert.Equal(t, StateID("d"), notifications[0].Value)
}

func TestSend_SeparateSendsNotifySeparately(t *testing.T) {
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{"GO": StateID("b")}},
			{ID: "b", On: map[EventType]TransitionSpec{"GO": StateID("a")}},
		},
	})
	require.NoError(t, err)

	var count int
	machine.Subscribe(func(Snapshot) { count++ })

	machine.SendType("GO")
	machine.SendType("GO")
	assert.Equal(t, 2, count)
}

func TestBatch_GroupsMultipleSends(t *testing.T) {
	machine, err := New(Config{
		Initial: "a",
		States: []StateDef{
			{ID: "a", On: map[EventType]TransitionSpec{"GO": StateID("b")}},
			{ID: "b", On: map[EventType]TransitionSpec{"GO": StateID("a")}},
		},
	})
	require.NoError(t, err)

	var count int
	machine.Subscribe(func(Snapshot) { count++ })

	machine.Batch(func() {
		machine.SendType("GO")
		machine.SendType("GO")
	})
	assert.Equal(t, 1, count)
}

func TestSend_CascadeTooDeepPanics(t *testing.T) {
	machine, err := New(Config{
		Initial: "idle",
		States: []StateDef{
			{ID: "idle", On: map[EventType]TransitionSpec{"START": StateID("a")}},
			{
				ID:    "a",
				Entry: func(a ActionArgs) { a.Send(Event{Type: "PING"}) },
				On:    map[EventType]TransitionSpec{"PING": StateID("b")},
			},
			{
				ID:    "b",
				Entry: func(a ActionArgs) { a.Send(Event{Type: "PONG"}) },
				On:    map[EventType]TransitionSpec{"PONG": StateID("a")},
			},
		},
	}, WithMaxCascadeDepth(10))
	require.NoError(t, err)

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected cascade panic")
		cerr, ok := r.(*CascadeError)
		require.True(t, ok, "unexpected panic value %v", r)
		assert.Equal(t, 10, cerr.Depth)
		assert.Contains(t, cerr.Error(), "transition cascade too deep")
	}()
	machine.SendType("START")
}
