package event

// Hook payloads. Handlers receive these by value.

type QuestPayload struct {
	Player  string `json:"player"`
	QuestID string `json:"quest_id"`
	Title   string `json:"title"`
	Level   int    `json:"level"`
}

type ObjectivePayload struct {
	QuestID     string `json:"quest_id"`
	ObjectiveID string `json:"objective_id"`
}

type LevelUpPayload struct {
	Player string `json:"player"`
	Level  int    `json:"level"`
}

type AbilityPayload struct {
	Player    string `json:"player"`
	AbilityID string `json:"ability_id"`
}

type InteractPayload struct {
	Player   string `json:"player"`
	EntityID string `json:"entity_id"`
	Kind     string `json:"kind"`
}

type ItemPayload struct {
	Player     string `json:"player"`
	InstanceID string `json:"instance_id"`
	ItemID     string `json:"item_id"`
}
