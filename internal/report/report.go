// Package report renders admin dashboard exports.
package report

import (
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/hwg121/taskmanagement/internal/models"
)

// ActivityReport serializes the activity log as an indented XML
// document:
//
//	<activityReport generatedAt="...">
//	  <activity type="login">
//	    <username>alice01</username>
//	    <action>Logged in</action>
//	    <timestamp>2026-01-02T15:04:05Z</timestamp>
//	  </activity>
//	</activityReport>
func ActivityReport(activities []*models.Activity) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("activityReport")
	root.CreateAttr("generatedAt", time.Now().Format(time.RFC3339))
	root.CreateAttr("count", fmt.Sprintf("%d", len(activities)))

	for _, a := range activities {
		el := root.CreateElement("activity")
		el.CreateAttr("type", a.Type)
		el.CreateElement("username").SetText(a.Username)
		el.CreateElement("action").SetText(a.Action)
		el.CreateElement("timestamp").SetText(a.Timestamp.Format(time.RFC3339))
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize activity report: %w", err)
	}
	return out, nil
}
