// internal/engine/engine.go
package engine

import (
	"chit-chat/internal/engine/actors"
	"chit-chat/internal/store"
	"chit-chat/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates communication between actors
type Engine struct {
	userActor    *actor.PID
	messageActor *actor.PID
}

func NewEngine(system *actor.ActorSystem, adapter store.Adapter, metrics *utils.MetricsCollector) *Engine {
	context := system.Root

	// Spawn user actor
	userProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserActor(adapter, metrics)
	})
	userPID := context.Spawn(userProps)

	// Spawn message actor
	messageProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewMessageActor(adapter, metrics)
	})
	messagePID := context.Spawn(messageProps)

	return &Engine{
		userActor:    userPID,
		messageActor: messagePID,
	}
}

// GetUserActor returns the PID of the user actor
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetMessageActor returns the PID of the message actor
func (e *Engine) GetMessageActor() *actor.PID {
	return e.messageActor
}
