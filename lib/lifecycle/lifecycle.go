// Package lifecycle owns the inquiry promotion rules: the default checklist a
// new inquiry starts with, the sourcing tasks an event inherits from its
// inquiry's equipment needs, and the date/time combination for the event
// date. The store-side orchestration lives in lib/data; everything here is
// pure so the rules are testable in isolation.
package lifecycle

import (
	"fmt"
	"time"

	"crm/lib/models"

	"github.com/google/uuid"
)

// DefaultInquiryTasks returns the three-task checklist every new inquiry
// starts with: Rendering, Contract, Deposit.
func DefaultInquiryTasks() models.TaskList {
	return models.TaskList{
		{ID: uuid.NewString(), Name: models.InquiryTaskRendering},
		{ID: uuid.NewString(), Name: models.InquiryTaskContract},
		{ID: uuid.NewString(), Name: models.InquiryTaskDeposit},
	}
}

// BuildEventTasks derives the event checklist from the equipment the inquiry
// needs sourced. Items the client already covers, or never asked for (empty
// power/audio), are skipped; 2 or fewer CDJs are assumed house stock. When
// nothing needs sourcing a single logistics task stands in. "Paid(Full)" is
// always appended last.
func BuildEventTasks(inq *models.Inquiry) models.TaskList {
	var tasks models.TaskList

	if inq.Power != "" && inq.Power != models.PowerNone && inq.Power != models.PowerProvided {
		tasks = append(tasks, models.Task{ID: uuid.NewString(), Name: fmt.Sprintf("Source %s", inq.Power)})
	}
	if !inq.Gates {
		tasks = append(tasks, models.Task{ID: uuid.NewString(), Name: "Source Gates"})
	}
	if !inq.Security {
		tasks = append(tasks, models.Task{ID: uuid.NewString(), Name: "Source Security"})
	}
	if inq.CO2Tanks > 0 {
		tasks = append(tasks, models.Task{ID: uuid.NewString(), Name: fmt.Sprintf("Source %d CO2 Tanks", inq.CO2Tanks)})
	}
	if inq.CDJs > 2 {
		tasks = append(tasks, models.Task{ID: uuid.NewString(), Name: fmt.Sprintf("Source %d CDJs", inq.CDJs)})
	}
	if inq.Audio != "" && inq.Audio != models.AudioHouseRig {
		tasks = append(tasks, models.Task{ID: uuid.NewString(), Name: fmt.Sprintf("Source %s Audio", inq.Audio)})
	}

	if len(tasks) == 0 {
		tasks = append(tasks, models.Task{ID: uuid.NewString(), Name: models.EventTaskLogistics})
	}

	tasks = append(tasks, models.Task{ID: uuid.NewString(), Name: models.EventTaskPaidFull})
	return tasks
}

// EventDate combines the inquiry's calendar date with its wall-clock time.
// Any time component already on the date is ignored; an unparseable time
// falls back to midnight rather than failing the promotion.
func EventDate(inquiryDate time.Time, inquiryTime string) time.Time {
	hour, minute := 0, 0
	if parsed, err := time.Parse("15:04", inquiryTime); err == nil {
		hour, minute = parsed.Hour(), parsed.Minute()
	}
	return time.Date(
		inquiryDate.Year(), inquiryDate.Month(), inquiryDate.Day(),
		hour, minute, 0, 0, time.Local,
	)
}
