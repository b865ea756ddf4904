package skills

import (
	"context"
	"strings"
	"time"

	"lead-agent/internal/classify"
	"lead-agent/internal/dispatch"
	"lead-agent/internal/domain"
	"lead-agent/internal/stage"
)

const bookingFailure = "Sorry, something went wrong while logging your " +
	"request. Could you send that last message again?"

// FollowUp runs the demo-booking flow: it collects name, e-mail, company and
// message one field per turn, then logs the lead and notifies sales. The
// longer timeout covers the storage and notification round trips on the
// final turn.
func FollowUp(svc Services) dispatch.Definition {
	return dispatch.Definition{
		Name:     "follow_up",
		Kind:     domain.KindSystem,
		Priority: 550,
		Timeout:  30 * time.Second,
		Match: func(turn domain.Turn, convo *domain.Conversation) bool {
			if !turn.IsUser() {
				return false
			}
			if convo.Memory[memDemoStage] == demoStageCollecting {
				return true
			}
			if classify.IsDemoRequest(turn.Text) {
				return true
			}
			return stringFromExtras(convo, extraIntent) == IntentDemo
		},
		Handle: func(ctx context.Context, turn domain.Turn, convo *domain.Conversation) (domain.Result, error) {
			lead := leadFromMemory(convo.Memory)
			scrapeTranscript(convo, &lead)

			// The turn that opens the flow is a demo request, not a field
			// value; classify only replies given while already collecting.
			input := strings.TrimSpace(turn.Text)
			if convo.Memory[memDemoStage] != demoStageCollecting {
				input = ""
			}

			st := stage.Detect(ctx, lead, input, svc.Classifier)
			switch st {
			case stage.ProcessName, stage.ProcessEmail, stage.ProcessCompany, stage.ProcessMessage:
				lead = stage.Apply(st, input, lead)
			}
			if lead.Complete() {
				st = stage.CompleteBooking
			}

			storeLeadInMemory(convo.Memory, lead)
			convo.Memory[memDemoStage] = demoStageCollecting

			if st == stage.CompleteBooking {
				if _, err := svc.Syncer.Sync(ctx, convo.UserID, lead, true); err != nil {
					svc.logger().Error("lead sync failed", "user_id", convo.UserID, "err", err)
					return followUpResult(turn.ID, bookingFailure, false), nil
				}
				convo.Memory[memDemoStage] = demoStageCompleted
				res := followUpResult(turn.ID, "Perfect, "+lead.Name+"! Your demo request is "+
					"logged and our team will reach out to "+lead.NormalizedEmail()+" shortly. "+
					"Anything else I can help with in the meantime?", true)
				res.Suggested = []string{"What do you offer?", "Pricing"}
				return res, nil
			}

			return followUpResult(turn.ID, stageReply(st, lead, input), false), nil
		},
	}
}

func stageReply(st stage.Stage, lead domain.Lead, input string) string {
	switch st {
	case stage.ProcessName:
		return "Thanks, " + lead.Name + "! What's the best e-mail to reach you at?"
	case stage.AskEmail:
		if lead.Name != "" {
			return "Thanks, " + lead.Name + "! Could you share your e-mail address?"
		}
		return "Could you share your e-mail address?"
	case stage.ProcessEmail:
		return "Got it. Which company are you with?"
	case stage.AskCompany:
		return "Which company are you with?"
	case stage.ProcessCompany:
		// Restate the captured value so a mis-read name can be corrected.
		return "Great, noted " + lead.Company + ". Any specific goals or " +
			"challenges you'd like the demo to focus on?"
	case stage.AskMessage:
		return "Any specific goals or challenges you'd like the demo to focus on?"
	}
	return "Happy to set that up! May I get your name first?"
}

func followUpResult(turnID, text string, finished bool) domain.Result {
	return domain.Result{
		TurnID:      turnID,
		Text:        text,
		RoutedSkill: "follow_up",
		Finished:    finished,
	}
}

func leadFromMemory(memory map[string]string) domain.Lead {
	return domain.Lead{
		Name:    memory[memName],
		Email:   memory[memEmail],
		Company: memory[memCompany],
		Message: memory[memMessage],
	}
}

func storeLeadInMemory(memory map[string]string, lead domain.Lead) {
	set := func(key, val string) {
		if val != "" {
			memory[key] = val
		}
	}
	set(memName, lead.Name)
	set(memEmail, lead.Email)
	set(memCompany, lead.Company)
	set(memMessage, lead.Message)
}

// scrapeTranscript backfills name and e-mail the visitor already typed in
// earlier turns, so the flow never re-asks for them. The current turn is
// excluded; it is classified by the stage machine instead. Only multi-token
// names are accepted here, so a bare "hi" is never mistaken for one.
func scrapeTranscript(convo *domain.Conversation, lead *domain.Lead) {
	for i, t := range convo.Turns {
		if i == convo.TurnIndex() || !t.IsUser() {
			continue
		}
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		if lead.Email == "" && classify.IsEmail(text) {
			lead.Email = text
			continue
		}
		if lead.Name == "" && len(strings.Fields(text)) >= 2 && classify.IsName(text) {
			lead.Name = text
		}
	}
}
