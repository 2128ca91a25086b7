package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/terraincognita07/timebill/internal/models"
)

type ProjectKind int

const (
	// ProjectKindRoot is the single top project named "root".
	ProjectKindRoot ProjectKind = iota
	// ProjectKindBase is a direct child of the root and the only kind that holds rates.
	ProjectKindBase
	// ProjectKindChild sits below a base project and inherits its rates.
	ProjectKindChild
	// ProjectKindOrphan has no reachable parent and is not the root.
	ProjectKindOrphan
)

func (kind ProjectKind) String() string {
	switch kind {
	case ProjectKindRoot:
		return "root"
	case ProjectKindBase:
		return "base"
	case ProjectKindChild:
		return "child"
	default:
		return "orphan"
	}
}

type projectNode struct {
	project  models.Project
	parent   int
	children []int
}

// ProjectTree is an immutable snapshot of the project hierarchy stored as a flat arena
// of nodes addressed by index. Every walk is bounded by the node count.
type ProjectTree struct {
	nodes []projectNode
	index map[uint]int
	root  int
}

func NewProjectTree(projects []models.Project) *ProjectTree {
	sorted := make([]models.Project, len(projects))
	copy(sorted, projects)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	tree := &ProjectTree{
		nodes: make([]projectNode, 0, len(sorted)),
		index: make(map[uint]int, len(sorted)),
		root:  -1,
	}
	for _, project := range sorted {
		if _, exists := tree.index[project.ID]; exists {
			continue
		}
		tree.index[project.ID] = len(tree.nodes)
		tree.nodes = append(tree.nodes, projectNode{project: project, parent: -1})
	}

	for position := range tree.nodes {
		node := &tree.nodes[position]
		if node.project.ParentID == nil {
			if tree.root < 0 && node.project.IsRootCandidate() {
				tree.root = position
			}
			continue
		}
		parent, ok := tree.index[*node.project.ParentID]
		if !ok || parent == position {
			continue
		}
		node.parent = parent
		tree.nodes[parent].children = append(tree.nodes[parent].children, position)
	}

	return tree
}

func (tree *ProjectTree) Len() int {
	return len(tree.nodes)
}

func (tree *ProjectTree) Root() (models.Project, bool) {
	if tree.root < 0 {
		return models.Project{}, false
	}
	return tree.nodes[tree.root].project, true
}

func (tree *ProjectTree) Project(projectID uint) (models.Project, bool) {
	position, ok := tree.index[projectID]
	if !ok {
		return models.Project{}, false
	}
	return tree.nodes[position].project, true
}

func (tree *ProjectTree) Parent(projectID uint) (models.Project, bool) {
	position, ok := tree.index[projectID]
	if !ok || tree.nodes[position].parent < 0 {
		return models.Project{}, false
	}
	return tree.nodes[tree.nodes[position].parent].project, true
}

// chain returns node indexes from position up toward the root, nearest first.
func (tree *ProjectTree) chain(position int) []int {
	path := make([]int, 0, 4)
	for cursor := position; cursor >= 0 && len(path) < len(tree.nodes); cursor = tree.nodes[cursor].parent {
		path = append(path, cursor)
	}
	return path
}

func (tree *ProjectTree) projectsAt(positions []int) []models.Project {
	projects := make([]models.Project, 0, len(positions))
	for _, position := range positions {
		projects = append(projects, tree.nodes[position].project)
	}
	return projects
}

// SelfAndAncestors lists the project and its ancestors, nearest first.
func (tree *ProjectTree) SelfAndAncestors(projectID uint) []models.Project {
	position, ok := tree.index[projectID]
	if !ok {
		return []models.Project{}
	}
	return tree.projectsAt(tree.chain(position))
}

// Ancestors lists the ancestors of the project, root first.
func (tree *ProjectTree) Ancestors(projectID uint) []models.Project {
	position, ok := tree.index[projectID]
	if !ok {
		return []models.Project{}
	}
	path := tree.chain(position)[1:]
	ancestors := make([]models.Project, 0, len(path))
	for cursor := len(path) - 1; cursor >= 0; cursor-- {
		ancestors = append(ancestors, tree.nodes[path[cursor]].project)
	}
	return ancestors
}

// Descendants lists every project below the given one in depth-first order.
func (tree *ProjectTree) Descendants(projectID uint) []models.Project {
	position, ok := tree.index[projectID]
	if !ok {
		return []models.Project{}
	}

	descendants := make([]models.Project, 0)
	visited := make([]bool, len(tree.nodes))
	visited[position] = true
	stack := reversedCopy(tree.nodes[position].children)
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		descendants = append(descendants, tree.nodes[current].project)
		stack = append(stack, reversedCopy(tree.nodes[current].children)...)
	}
	return descendants
}

func (tree *ProjectTree) IsDescendant(projectID uint, ancestorID uint) bool {
	position, ok := tree.index[projectID]
	if !ok {
		return false
	}
	for _, cursor := range tree.chain(position)[1:] {
		if tree.nodes[cursor].project.ID == ancestorID {
			return true
		}
	}
	return false
}

func (tree *ProjectTree) IsBase(projectID uint) bool {
	position, ok := tree.index[projectID]
	return ok && tree.root >= 0 && tree.nodes[position].parent == tree.root
}

func (tree *ProjectTree) Kind(projectID uint) ProjectKind {
	project, ok := tree.Project(projectID)
	if !ok {
		return ProjectKindOrphan
	}
	return tree.KindOf(project)
}

// KindOf classifies a project by its parent reference, which may differ from the
// stored snapshot when the project is about to be saved.
func (tree *ProjectTree) KindOf(project models.Project) ProjectKind {
	if project.ParentID == nil {
		if tree.root >= 0 && tree.nodes[tree.root].project.ID == project.ID {
			return ProjectKindRoot
		}
		if tree.root < 0 && project.IsRootCandidate() {
			return ProjectKindRoot
		}
		return ProjectKindOrphan
	}
	if _, ok := tree.index[*project.ParentID]; !ok {
		return ProjectKindOrphan
	}
	if tree.root >= 0 && tree.nodes[tree.root].project.ID == *project.ParentID {
		return ProjectKindBase
	}
	return ProjectKindChild
}

// CascadeClient fills an unset client from the nearest ancestor, parent first, that has
// one. A client that is already set is left alone.
func (tree *ProjectTree) CascadeClient(project *models.Project) {
	if project.ClientID != nil || project.ParentID == nil {
		return
	}
	for _, ancestor := range tree.SelfAndAncestors(*project.ParentID) {
		if ancestor.ClientID != nil {
			clientID := *ancestor.ClientID
			project.ClientID = &clientID
			return
		}
	}
}

func (tree *ProjectTree) EffectiveAccount(projectID uint) string {
	for _, project := range tree.SelfAndAncestors(projectID) {
		if strings.TrimSpace(project.Account) != "" {
			return project.Account
		}
	}
	return ""
}

// EffectiveClockable treats false as unset, so any clockable ancestor makes the
// project clockable.
func (tree *ProjectTree) EffectiveClockable(projectID uint) bool {
	for _, project := range tree.SelfAndAncestors(projectID) {
		if project.Clockable {
			return true
		}
	}
	return false
}

// RepositoriesSource returns the nearest project, itself included, that has at least
// one source repository according to counts.
func (tree *ProjectTree) RepositoriesSource(projectID uint, counts map[uint]int) (models.Project, bool) {
	for _, project := range tree.SelfAndAncestors(projectID) {
		if counts[project.ID] > 0 {
			return project, true
		}
	}
	return models.Project{}, false
}

// ValidateProject checks a project against the hierarchy before it is saved and joins
// every violated rule.
func (tree *ProjectTree) ValidateProject(project models.Project) error {
	violations := make([]error, 0, 2)
	if strings.TrimSpace(project.Name) == "" {
		violations = append(violations, ErrMissingProjectName)
	}

	if project.ParentID == nil {
		if !project.IsRootCandidate() {
			violations = append(violations, ErrMissingParent)
		} else if existing, ok := tree.Root(); ok && existing.ID != project.ID {
			violations = append(violations, ErrDuplicateRootProject)
		}
		return errors.Join(violations...)
	}

	parentID := *project.ParentID
	if _, ok := tree.Project(parentID); !ok {
		violations = append(violations, ErrParentProjectNotFound)
	} else if project.ID != 0 && (parentID == project.ID || tree.IsDescendant(parentID, project.ID)) {
		violations = append(violations, ErrProjectHierarchyCycle)
	}
	return errors.Join(violations...)
}

func reversedCopy(values []int) []int {
	reversed := make([]int, len(values))
	for position, value := range values {
		reversed[len(values)-1-position] = value
	}
	return reversed
}
