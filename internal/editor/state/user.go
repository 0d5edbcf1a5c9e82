package state

// Vec2 is a floating-point 2D position, used for cursor coordinates.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IVec2 is an integer 2D position, used for playfield coordinates.
type IVec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// UserInfo is per-session presentation state for one connected presence.
// Cursor and playback time are last-write-wins fields mutated directly by
// their commands; the per-tick snapshot picks them up.
type UserInfo struct {
	ID          uint64 `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	ProfileID   int64  `json:"profileId"`
	CursorPos   *Vec2  `json:"cursorPos,omitempty"`
	CurrentTime int    `json:"currentTime"`
}

// Roster tracks connected users in join order.
type Roster struct {
	users []UserInfo
}

// Add appends a user to the roster.
func (r *Roster) Add(user UserInfo) {
	r.users = append(r.users, user)
}

// FindMut returns a pointer to the user for in-place mutation.
func (r *Roster) FindMut(id uint64) *UserInfo {
	for i := range r.users {
		if r.users[i].ID == id {
			return &r.users[i]
		}
	}
	return nil
}

// Remove deletes the user and returns it. Removing an unknown id is a
// no-op.
func (r *Roster) Remove(id uint64) (UserInfo, bool) {
	for i := range r.users {
		if r.users[i].ID == id {
			removed := r.users[i]
			r.users = append(r.users[:i], r.users[i+1:]...)
			return removed, true
		}
	}
	return UserInfo{}, false
}

// All returns the users in join order. The slice is shared; callers must
// not mutate it.
func (r *Roster) All() []UserInfo {
	return r.users
}

// Len reports the number of connected users.
func (r *Roster) Len() int {
	return len(r.users)
}
