package auth

// ScopeActivitiesWrite grants creating and deleting activities.
const ScopeActivitiesWrite = "activities:write"

// ScopeActivitiesRead grants reading activities.
const ScopeActivitiesRead = "activities:read"
