package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/verifier/core"
)

type panicky struct{}

func (panicky) SpecViolation(core.VerificationEvent) { panic("boom") }
func (panicky) BeanChecked(core.VerificationEvent)   { panic("boom") }

func TestFactory(t *testing.T) {
	f := NewFactory()
	m := &typemodel.Method{
		Name:           "create",
		Flags:          typemodel.ModPublic | typemodel.ModAbstract,
		ParameterTypes: []string{},
		ReturnType:     "com.acme.Teller",
		DeclaringClass: "com.acme.TellerHome",
	}

	e := f.NewSpecViolation("Teller", m, core.NewSection("6.8.c"))
	assert.Equal(t, core.EventSpecViolation, e.Kind)
	assert.Equal(t, "Teller", e.BeanName)
	assert.Equal(t, "public abstract com.acme.Teller com.acme.TellerHome.create()", e.Method)
	msg, _ := core.Message("6.8.c")
	assert.Equal(t, msg, e.Message)

	noMethod := f.NewSpecViolation("Teller", nil, core.NewSection("6.10.2.b"))
	assert.Empty(t, noMethod.Method)

	ok := f.NewBeanVerified("Teller")
	assert.Equal(t, core.EventBeanVerified, ok.Kind)
	assert.Equal(t, VerifiedMessage, ok.Message)
	assert.True(t, ok.Section.IsZero())
}

func TestBus(t *testing.T) {
	core0, logs := observer.New(zapcore.ErrorLevel)
	bus := NewBus(zap.New(core0))
	f := NewFactory()

	first, second := NewCollector(), NewCollector()
	bus.Subscribe(first)
	bus.Subscribe(panicky{})
	bus.Subscribe(second)
	bus.Subscribe(nil)
	assert.Equal(t, 3, bus.Len())

	bus.Publish(f.NewSpecViolation("A", nil, core.NewSection("7.10.1")))
	bus.Publish(f.NewBeanVerified("B"))

	t.Run("panic 不中断分发", func(t *testing.T) {
		assert.Len(t, first.Events(), 2)
		assert.Len(t, second.Events(), 2)
		assert.Equal(t, 2, logs.Len())
	})

	t.Run("按顺序分发", func(t *testing.T) {
		events := second.Events()
		assert.Equal(t, core.EventSpecViolation, events[0].Kind)
		assert.Equal(t, core.EventBeanVerified, events[1].Kind)
		assert.Equal(t, []string{"7.10.1"}, second.Sections())
		assert.Equal(t, []string{"B"}, second.Verified())
	})

	t.Run("退订", func(t *testing.T) {
		bus.Unsubscribe(first)
		bus.Unsubscribe(nil)
		bus.Publish(f.NewBeanVerified("C"))
		assert.Len(t, first.Events(), 2)
		assert.Len(t, second.Events(), 3)
	})

	t.Run("回调中退订不死锁", func(t *testing.T) {
		var self *core.ListenerFuncs
		self = &core.ListenerFuncs{OnVerified: func(core.VerificationEvent) { bus.Unsubscribe(self) }}
		bus.Subscribe(self)
		bus.Publish(f.NewBeanVerified("D"))
		bus.Publish(f.NewBeanVerified("E"))
		assert.Len(t, second.Events(), 5)
	})
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector()
	c.SpecViolation(core.VerificationEvent{Kind: core.EventSpecViolation, Section: core.NewSection("x")})
	require.Len(t, c.Violations(), 1)
	c.Reset()
	assert.Empty(t, c.Events())
}

func TestLoggingListener(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	l := NewLoggingListener(zap.New(obs))
	f := NewFactory()

	l.SpecViolation(f.NewSpecViolation("Account", &typemodel.Method{Name: "getBalance", ReturnType: typemodel.Void},
		core.NewSection("jb.7.1.b", "balance")))
	l.BeanChecked(f.NewBeanVerified("Teller"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "jb.7.1.b", fields["section"])
	assert.Equal(t, "balance", fields["info"])
	assert.Equal(t, "void getBalance()", fields["method"])
	assert.Equal(t, "Teller", entries[1].ContextMap()["bean"])

	assert.NotNil(t, NewLoggingListener(nil))
}
