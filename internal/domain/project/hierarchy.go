package project

// maxChainDepth bounds every walk up the reporting chain.
const maxChainDepth = 10000

// ManagerLookup resolves a member to their direct manager.
type ManagerLookup interface {
	ManagerOf(userID string) (managerID string, ok bool)
}

// ManagerMap is a ManagerLookup over user id → manager id.
type ManagerMap map[string]string

func (m ManagerMap) ManagerOf(userID string) (string, bool) {
	managerID, ok := m[userID]
	return managerID, ok && managerID != ""
}

// NewManagerMap indexes members by user id.
func NewManagerMap(members []Member) ManagerMap {
	m := make(ManagerMap, len(members))
	for _, mem := range members {
		if mem.ManagerID != nil {
			m[mem.UserID] = *mem.ManagerID
		}
	}
	return m
}

// ValidateManagerAssignment rejects making managerID the manager of userID when
// userID already appears in managerID's reporting chain, or when they are the same user.
// Pre-existing cycles in lookup terminate the walk.
func ValidateManagerAssignment(lookup ManagerLookup, userID, managerID string) error {
	if userID == managerID {
		return ErrSelfManagement
	}

	visited := map[string]bool{managerID: true}
	current := managerID
	for i := 0; i < maxChainDepth; i++ {
		next, ok := lookup.ManagerOf(current)
		if !ok {
			return nil
		}
		if next == userID {
			return ErrCircularReference
		}
		if visited[next] {
			return nil
		}
		visited[next] = true
		current = next
	}
	return ErrHierarchyTooDeep
}

// ManagerChain lists userID's managers from the direct manager upward, stopping at a repeat.
func ManagerChain(lookup ManagerLookup, userID string) []string {
	var chain []string
	visited := map[string]bool{userID: true}
	current := userID
	for i := 0; i < maxChainDepth; i++ {
		next, ok := lookup.ManagerOf(current)
		if !ok || visited[next] {
			break
		}
		visited[next] = true
		chain = append(chain, next)
		current = next
	}
	return chain
}

// IsInReportingLine reports whether managerID appears anywhere in userID's chain.
func IsInReportingLine(lookup ManagerLookup, managerID, userID string) bool {
	for _, id := range ManagerChain(lookup, userID) {
		if id == managerID {
			return true
		}
	}
	return false
}
