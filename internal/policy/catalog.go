package policy

// Action identifies one tool-style operation. Catalog membership is static
// configuration: every action belongs to exactly one of the three catalogs
// below, built once at process start and never mutated.
type Action string

// Admin-write actions.
const (
	ActionAddScout             Action = "add_scout"
	ActionUpdateScout          Action = "update_scout"
	ActionOverrideStatus       Action = "override_requirement_status"
	ActionExcludeRequirement   Action = "exclude_requirement"
	ActionSignOffRequirement   Action = "sign_off_requirement"
	ActionRunPipeline          Action = "run_pipeline"
	ActionUpdateQuestPlan      Action = "update_quest_plan"
	ActionMarkPlanReviewed     Action = "mark_plan_reviewed"
	ActionResetRequirement     Action = "reset_requirement"
	ActionUpdateThresholds     Action = "update_thresholds"
	ActionManageNotifications  Action = "manage_notifications"
	ActionDeleteActivityRecord Action = "delete_activity_record"
)

// Scout actions.
const (
	ActionLogChore               Action = "log_chore"
	ActionAddBudgetEntry         Action = "add_budget_entry"
	ActionAddDiaryEntry          Action = "add_diary_entry"
	ActionUpdateRequirementState Action = "update_requirement_status"
	ActionSubmitRequirement      Action = "submit_requirement"
)

// Read actions.
const (
	ActionGetScout         Action = "get_scout"
	ActionListRequirements Action = "list_requirements"
	ActionGetRequirement   Action = "get_requirement"
	ActionGetQuestPlan     Action = "get_quest_plan"
	ActionListChores       Action = "list_chores"
	ActionListBudget       Action = "list_budget_entries"
	ActionListDiary        Action = "list_diary_entries"
	ActionListAuditLog     Action = "list_audit_log"
)

type catalog map[Action]struct{}

func newCatalog(actions ...Action) catalog {
	c := make(catalog, len(actions))
	for _, a := range actions {
		c[a] = struct{}{}
	}
	return c
}

func (c catalog) contains(a Action) bool {
	_, ok := c[a]
	return ok
}

// The three disjoint catalogs. Kept as data rather than code branches so the
// rules stay auditable independent of evaluation logic.
var (
	adminWriteActions = newCatalog(
		ActionAddScout,
		ActionUpdateScout,
		ActionOverrideStatus,
		ActionExcludeRequirement,
		ActionSignOffRequirement,
		ActionRunPipeline,
		ActionUpdateQuestPlan,
		ActionMarkPlanReviewed,
		ActionResetRequirement,
		ActionUpdateThresholds,
		ActionManageNotifications,
		ActionDeleteActivityRecord,
	)

	scoutActions = newCatalog(
		ActionLogChore,
		ActionAddBudgetEntry,
		ActionAddDiaryEntry,
		ActionUpdateRequirementState,
		ActionSubmitRequirement,
	)

	readActions = newCatalog(
		ActionGetScout,
		ActionListRequirements,
		ActionGetRequirement,
		ActionGetQuestPlan,
		ActionListChores,
		ActionListBudget,
		ActionListDiary,
		ActionListAuditLog,
	)
)

// IsAdminWrite reports whether the action is in the admin-write catalog.
func IsAdminWrite(a Action) bool { return adminWriteActions.contains(a) }

// IsScoutAction reports whether the action is in the scout catalog.
func IsScoutAction(a Action) bool { return scoutActions.contains(a) }

// IsReadAction reports whether the action is in the read catalog.
func IsReadAction(a Action) bool { return readActions.contains(a) }
