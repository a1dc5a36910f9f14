package onboarding

import (
	"fmt"
	"strings"

	goslack "github.com/slack-go/slack"

	"onboarding-bot/internal/models"
)

const (
	// CompleteActionID identifies the "Complete Onboarding" button.
	CompleteActionID = "complete_onboarding"

	moreInfoActionPrefix = "action_more_info_"

	// MaxBlocks is the most blocks chat.postMessage accepts in one message.
	MaxBlocks = 50
)

// mrkdwnEscaper escapes the control characters of Slack's mrkdwn so sheet
// text can't form links or mentions such as <!here>.
var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// MoreInfoActionID returns the action id of the link button for the item at
// the zero-based plan index.
func MoreInfoActionID(index int) string {
	return fmt.Sprintf("%s%d", moreInfoActionPrefix, index)
}

// FormatMessage renders the plan as Block Kit blocks: a greeting, one
// section per item and a trailing actions block. It has no side effects and
// always returns len(plan)+2 blocks.
func FormatMessage(plan models.OnboardingPlan, profile models.UserProfile) []goslack.Block {
	blocks := make([]goslack.Block, 0, len(plan)+2)

	greeting := fmt.Sprintf("Welcome %s! We're excited to have you onboard.", mrkdwnEscaper.Replace(profile.FullName))
	blocks = append(blocks, goslack.NewSectionBlock(markdown(greeting), nil, nil))

	for i, item := range plan {
		text := fmt.Sprintf("%d. *%s:* %s", i+1, mrkdwnEscaper.Replace(item.Item), mrkdwnEscaper.Replace(item.Description))

		var accessory *goslack.Accessory
		if item.HasLink() {
			button := goslack.NewButtonBlockElement(MoreInfoActionID(i), "", plainText("More info"))
			button.URL = item.Link
			accessory = goslack.NewAccessory(button)
		}
		blocks = append(blocks, goslack.NewSectionBlock(markdown(text), nil, accessory))
	}

	complete := goslack.NewButtonBlockElement(CompleteActionID, CompleteActionID, plainText("Complete Onboarding"))
	blocks = append(blocks, goslack.NewActionBlock("", complete))

	return blocks
}

func markdown(s string) *goslack.TextBlockObject {
	return goslack.NewTextBlockObject(goslack.MarkdownType, s, false, false)
}

func plainText(s string) *goslack.TextBlockObject {
	return goslack.NewTextBlockObject(goslack.PlainTextType, s, false, false)
}
