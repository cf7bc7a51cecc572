package main

// ResolveConsumption returns the index of the first food in foods that the snake
// head collides with, or -1. Only one food is resolved per tick; overlapping
// foods wait for a later tick.
func ResolveConsumption(snake *Snake, foods []*Food) int {
	for i, f := range foods {
		if snake.CheckFoodCollision(f) {
			return i
		}
	}
	return -1
}

// removeFood deletes index i from foods, keeping order
func removeFood(foods []*Food, i int) []*Food {
	copy(foods[i:], foods[i+1:])
	foods[len(foods)-1] = nil
	return foods[:len(foods)-1]
}
