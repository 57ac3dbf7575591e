package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"chit-chat/internal/models"
)

var samplePhrases = []string{
	"hey everyone",
	"anyone around?",
	"just shipped a fix",
	"lunch?",
	"that demo went well",
	"can someone review my change",
	"good morning",
	"see you tomorrow",
}

// SimulateActivities drives message, reaction and feed-read traffic until
// the context expires. Each user gets its own goroutine with jittered
// per-activity timers derived from the configured hourly frequencies.
func (s *Simulator) SimulateActivities(ctx context.Context) error {
	s.mu.RLock()
	users := make([]*SimulatedUser, len(s.users))
	copy(users, s.users)
	s.mu.RUnlock()

	if len(users) == 0 {
		return fmt.Errorf("no registered users to simulate")
	}

	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(u *SimulatedUser) {
			defer wg.Done()
			s.runUserLoop(ctx, u)
		}(user)
	}

	wg.Wait()
	return nil
}

// interval converts an hourly frequency into a wait duration with up to
// 50% jitter so users don't fire in lockstep.
func interval(perHour float64) time.Duration {
	if perHour <= 0 {
		return time.Hour
	}
	base := time.Duration(float64(time.Hour) / perHour)
	jitter := time.Duration(rand.Float64() * 0.5 * float64(base))
	return base + jitter
}

func (s *Simulator) runUserLoop(ctx context.Context, user *SimulatedUser) {
	messageTimer := time.NewTimer(interval(s.config.MessageFrequency))
	reactionTimer := time.NewTimer(interval(s.config.ReactionFrequency))
	feedTimer := time.NewTimer(interval(s.config.FeedFrequency))
	defer messageTimer.Stop()
	defer reactionTimer.Stop()
	defer feedTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-messageTimer.C:
			if err := s.sendMessage(user); err != nil {
				log.Printf("User %s: send failed: %v", user.Name, err)
			}
			messageTimer.Reset(interval(s.config.MessageFrequency))

		case <-reactionTimer.C:
			if err := s.reactToRandomMessage(user); err != nil {
				log.Printf("User %s: reaction failed: %v", user.Name, err)
			}
			reactionTimer.Reset(interval(s.config.ReactionFrequency))

		case <-feedTimer.C:
			if err := s.readFeed(user); err != nil {
				log.Printf("User %s: feed read failed: %v", user.Name, err)
			}
			feedTimer.Reset(interval(s.config.FeedFrequency))
		}
	}
}

func (s *Simulator) sendMessage(user *SimulatedUser) error {
	content := samplePhrases[rand.Intn(len(samplePhrases))]

	body := map[string]interface{}{
		"content": fmt.Sprintf("%s (%s)", content, user.Name),
	}

	isPrivate := rand.Float64() < s.config.PrivateRatio
	if isPrivate {
		target := s.randomOtherUser(user)
		if target == nil {
			isPrivate = false
		} else {
			body["isPrivate"] = true
			body["targetUserId"] = target.ID.String()
		}
	}

	resp, err := s.makeRequest("POST", "/messages", body, user.Token)
	if err != nil {
		return err
	}

	var msg models.Message
	if err := json.Unmarshal(resp, &msg); err != nil {
		return fmt.Errorf("failed to parse message response: %v", err)
	}
	user.Messages = append(user.Messages, msg.ID)

	s.stats.mu.Lock()
	s.stats.TotalMessages++
	if isPrivate {
		s.stats.PrivateMessages++
	}
	s.stats.mu.Unlock()
	return nil
}

func (s *Simulator) reactToRandomMessage(user *SimulatedUser) error {
	feed, err := s.fetchFeed(user)
	if err != nil {
		return err
	}
	if len(feed) == 0 {
		return nil
	}

	target := feed[rand.Intn(len(feed))]
	if user.Reacted[target.ID] {
		return nil
	}

	emoji := models.AllowedEmojis[rand.Intn(len(models.AllowedEmojis))]
	_, err = s.makeRequest("POST", "/messages/reaction", map[string]interface{}{
		"messageId": target.ID.String(),
		"emoji":     emoji,
	}, user.Token)
	if err != nil {
		return err
	}

	user.Reacted[target.ID] = true

	s.stats.mu.Lock()
	s.stats.TotalReactions++
	s.stats.mu.Unlock()
	return nil
}

func (s *Simulator) readFeed(user *SimulatedUser) error {
	feed, err := s.fetchFeed(user)
	if err != nil {
		return err
	}

	// Mark a few unseen messages, the way a scrolling viewer would.
	marked := 0
	for _, msg := range feed {
		if msg.UserID == user.ID || marked >= 3 {
			continue
		}
		if _, err := s.makeRequest("POST", "/messages/seen", map[string]interface{}{
			"messageId": msg.ID.String(),
		}, user.Token); err != nil {
			log.Printf("User %s: seen receipt failed: %v", user.Name, err)
			continue
		}
		marked++
	}

	s.stats.mu.Lock()
	s.stats.TotalFeedReads++
	s.stats.mu.Unlock()
	return nil
}

func (s *Simulator) fetchFeed(user *SimulatedUser) ([]*models.Message, error) {
	resp, err := s.makeRequest("GET", "/messages", nil, user.Token)
	if err != nil {
		return nil, err
	}

	var feed []*models.Message
	if err := json.Unmarshal(resp, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %v", err)
	}
	return feed, nil
}


func (s *Simulator) randomOtherUser(user *SimulatedUser) *SimulatedUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.users) < 2 {
		return nil
	}
	for {
		candidate := s.users[rand.Intn(len(s.users))]
		if candidate.ID != user.ID {
			return candidate
		}
	}
}
