package services

import (
	"encoding/json"
	"fmt"

	"github.com/darren/kanbo-api/internal/database"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/google/uuid"
)

// Notify writes a persisted notification for a user and fires a push
// notification if FCM is configured. Failures are logged by the push layer
// and never propagate: notification delivery must not affect the request.
func Notify(userID uuid.UUID, notifType, title, body string, metadata map[string]interface{}) {
	notif := models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
	}

	var pushData map[string]string
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err == nil {
			s := string(data)
			notif.Metadata = &s
		}
		// Convert metadata to string map for push payload
		pushData = make(map[string]string)
		for k, v := range metadata {
			pushData[k] = fmt.Sprintf("%v", v)
		}
		pushData["type"] = notifType
	}

	database.DB.Create(&notif)

	if Push != nil {
		go Push.SendToUser(userID, title, body, pushData)
	}
}
