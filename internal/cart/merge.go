package cart

import "github.com/aguilarsoft/cartsync/pkg/cartapi"

// MergePlan is the outcome of reconciling local lines against the server
// cart: Push lines are sent to the server in insertion order, Drop lines are
// discarded in favor of the server copy.
type MergePlan struct {
	Push []LineItem
	Drop []LineItem
}

// MergeStrategy decides what happens to local lines when a sync finds a
// server cart. The policy is explicit so "local loses on overlap" is a
// visible decision rather than an accident of the sync loop.
type MergeStrategy interface {
	Plan(local []LineItem, server *cartapi.Cart) MergePlan
}

// PresenceWins pushes local lines whose product the server has never seen
// and drops the rest. Quantities are never summed: if the server already
// carries a product, its quantity wins outright.
type PresenceWins struct{}

func (PresenceWins) Plan(local []LineItem, server *cartapi.Cart) MergePlan {
	if server == nil || len(server.LineItems) == 0 {
		return MergePlan{Push: local}
	}

	present := make(map[string]struct{}, len(server.LineItems))
	for _, item := range server.LineItems {
		present[item.ProductID] = struct{}{}
	}

	var plan MergePlan
	for _, line := range local {
		if _, ok := present[line.ProductID]; ok {
			plan.Drop = append(plan.Drop, line)
			continue
		}
		plan.Push = append(plan.Push, line)
	}
	return plan
}
