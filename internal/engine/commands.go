package engine

import (
	"strconv"
	"strings"

	"github.com/mesaflow/mesaflow-backend/pkg/enums"
)

// parseIndexedChoice resolves a list pick to its 1-based index. It accepts
// the row id we rendered ("item:3") as well as a bare typed number ("3").
func parseIndexedChoice(choice, prefix string) (int, bool) {
	choice = strings.TrimSpace(choice)
	if rest, found := strings.CutPrefix(choice, prefix+":"); found {
		choice = rest
	}
	index, err := strconv.Atoi(choice)
	if err != nil {
		return 0, false
	}
	return index, true
}

func parseQuantity(choice string) (int, bool) {
	quantity, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil {
		return 0, false
	}
	return quantity, true
}

func parseOrderType(choice string) (enums.OrderType, bool) {
	switch strings.TrimSpace(choice) {
	case string(enums.OrderTypeDineIn), "dine in", "dine-in", "dinein", "1":
		return enums.OrderTypeDineIn, true
	case string(enums.OrderTypePickup), "pick up", "pick-up", "takeaway", "take away", "2":
		return enums.OrderTypePickup, true
	case string(enums.OrderTypeDelivery), "deliver", "3":
		return enums.OrderTypeDelivery, true
	}
	return "", false
}

// parseRemove matches "remove <n>".
func parseRemove(choice string) (int, bool) {
	fields := strings.Fields(choice)
	if len(fields) != 2 || fields[0] != "remove" {
		return 0, false
	}
	index, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return index, true
}

// parseChange matches "change <n> to <q>".
func parseChange(choice string) (index, quantity int, ok bool) {
	fields := strings.Fields(choice)
	if len(fields) != 4 || fields[0] != "change" || fields[2] != "to" {
		return 0, 0, false
	}
	index, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, false
	}
	quantity, err = strconv.Atoi(fields[3])
	if err != nil {
		return 0, 0, false
	}
	return index, quantity, true
}
