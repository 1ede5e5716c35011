package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/PaFunzFr/KanMind-backend/internal/authz"
	"github.com/PaFunzFr/KanMind-backend/internal/constants"
	"github.com/PaFunzFr/KanMind-backend/internal/database"
	"github.com/PaFunzFr/KanMind-backend/internal/dto"
	"github.com/PaFunzFr/KanMind-backend/internal/models"
	"github.com/PaFunzFr/KanMind-backend/internal/repository"
	"github.com/PaFunzFr/KanMind-backend/internal/services"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *TaskHandler
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.BoardMember{},
		&models.Task{},
		&models.Comment{},
	)
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	taskRepo := repository.NewTaskRepository(suite.db)
	boardRepo := repository.NewBoardRepository(suite.db)
	// No AI service in tests
	taskService := services.NewTaskService(taskRepo, boardRepo, nil)
	suite.handler = NewTaskHandler(taskService)

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskHandlerTestSuite) createTestUser(email, fullname string) *models.User {
	user := &models.User{
		Email:        email,
		Fullname:     fullname,
		PasswordHash: "hashedpassword",
		IsActive:     true,
	}
	suite.db.Create(user)
	return user
}

func (suite *TaskHandlerTestSuite) createTestBoard(title string, ownerID uint64, memberIDs ...uint64) *models.Board {
	board := &models.Board{
		Title:   title,
		OwnerID: ownerID,
	}
	suite.db.Create(board)
	for _, memberID := range memberIDs {
		suite.db.Create(&models.BoardMember{BoardID: board.ID, UserID: memberID})
	}
	return board
}

func (suite *TaskHandlerTestSuite) createTestTask(title string, boardID, creatorID uint64) *models.Task {
	task := &models.Task{
		Title:       title,
		Description: "Test Description",
		BoardID:     boardID,
		CreatedByID: &creatorID,
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
	}
	suite.db.Create(task)
	return task
}

// Helper function to create authenticated context
func (suite *TaskHandlerTestSuite) createAuthContext(method, url string, body []byte, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeyIdentity, authz.Identity{
		UserID:  user.ID,
		IsAdmin: user.IsSuperuser,
	})

	return c, w
}

func (suite *TaskHandlerTestSuite) setTaskParam(c *gin.Context, taskID uint64) {
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(taskID, 10)}}
}

// TestCreateTask_Success tests successful task creation with defaults
func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	user := suite.createTestUser("member@example.com", "Member")
	board := suite.createTestBoard("Sprint Board", user.ID, user.ID)

	requestBody := map[string]interface{}{
		"title":       "New Task",
		"description": "Task Description",
		"board":       board.ID,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, user)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "New Task", response.Title)
	assert.Equal(suite.T(), models.TaskStatusTodo, response.Status)
	assert.Equal(suite.T(), models.TaskPriorityMedium, response.Priority)
	suite.Require().NotNil(response.CreatedByID)
	assert.Equal(suite.T(), user.ID, *response.CreatedByID)
}

// TestCreateTask_NotBoardMember tests creation by a non-member
func (suite *TaskHandlerTestSuite) TestCreateTask_NotBoardMember() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	stranger := suite.createTestUser("stranger@example.com", "Stranger")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID)

	requestBody := map[string]interface{}{
		"title": "New Task",
		"board": board.ID,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, stranger)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestCreateTask_OwnerWithoutMembership tests that owning a board is not
// enough to create tasks on it
func (suite *TaskHandlerTestSuite) TestCreateTask_OwnerWithoutMembership() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	member := suite.createTestUser("member@example.com", "Member")
	board := suite.createTestBoard("Sprint Board", owner.ID, member.ID)

	requestBody := map[string]interface{}{
		"title": "New Task",
		"board": board.ID,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, owner)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestCreateTask_AssigneeNotMember tests creation with an assignee outside
// the board
func (suite *TaskHandlerTestSuite) TestCreateTask_AssigneeNotMember() {
	user := suite.createTestUser("member@example.com", "Member")
	outsider := suite.createTestUser("outsider@example.com", "Outsider")
	board := suite.createTestBoard("Sprint Board", user.ID, user.ID)

	requestBody := map[string]interface{}{
		"title":       "New Task",
		"board":       board.ID,
		"assignee_id": outsider.ID,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, user)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestCreateTask_InvalidStatus tests creation with an unknown status value
func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidStatus() {
	user := suite.createTestUser("member@example.com", "Member")
	board := suite.createTestBoard("Sprint Board", user.ID, user.ID)

	requestBody := map[string]interface{}{
		"title":  "New Task",
		"board":  board.ID,
		"status": "blocked",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, user)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestUpdateTask_Success tests a partial update
func (suite *TaskHandlerTestSuite) TestUpdateTask_Success() {
	user := suite.createTestUser("member@example.com", "Member")
	board := suite.createTestBoard("Sprint Board", user.ID, user.ID)
	task := suite.createTestTask("Old Title", board.ID, user.ID)

	requestBody := map[string]interface{}{
		"title":  "Updated Title",
		"status": "in-progress",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, user)
	suite.setTaskParam(c, task.ID)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Updated Title", response.Title)
	assert.Equal(suite.T(), models.TaskStatusInProgress, response.Status)
	// Untouched fields survive
	assert.Equal(suite.T(), "Test Description", response.Description)
}

// TestUpdateTask_NullAssignee tests clearing the assignee with an explicit null
func (suite *TaskHandlerTestSuite) TestUpdateTask_NullAssignee() {
	user := suite.createTestUser("member@example.com", "Member")
	board := suite.createTestBoard("Sprint Board", user.ID, user.ID)
	task := suite.createTestTask("Assigned Task", board.ID, user.ID)
	task.AssigneeID = &user.ID
	suite.db.Save(task)

	requestBody := map[string]interface{}{
		"assignee_id": nil,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, user)
	suite.setTaskParam(c, task.ID)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var updated models.Task
	suite.Require().NoError(suite.db.First(&updated, task.ID).Error)
	assert.Nil(suite.T(), updated.AssigneeID)
}

// TestUpdateTask_NonMemberForbidden tests update by someone outside the board
func (suite *TaskHandlerTestSuite) TestUpdateTask_NonMemberForbidden() {
	user := suite.createTestUser("member@example.com", "Member")
	stranger := suite.createTestUser("stranger@example.com", "Stranger")
	board := suite.createTestBoard("Sprint Board", user.ID, user.ID)
	task := suite.createTestTask("Test Task", board.ID, user.ID)

	requestBody := map[string]interface{}{"title": "Hijacked"}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, stranger)
	suite.setTaskParam(c, task.ID)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestDeleteTask_MemberNotCreator tests that plain members cannot delete
// tasks they did not create
func (suite *TaskHandlerTestSuite) TestDeleteTask_MemberNotCreator() {
	creator := suite.createTestUser("creator@example.com", "Creator")
	member := suite.createTestUser("member@example.com", "Member")
	owner := suite.createTestUser("owner@example.com", "Owner")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID, creator.ID, member.ID)
	task := suite.createTestTask("Test Task", board.ID, creator.ID)

	c, w := suite.createAuthContext("DELETE", "/api/tasks/1", nil, member)
	suite.setTaskParam(c, task.ID)

	suite.handler.DeleteTask(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestDeleteTask_CreatorAfterLeavingBoard tests that the creator keeps the
// right to delete even after being removed from the board
func (suite *TaskHandlerTestSuite) TestDeleteTask_CreatorAfterLeavingBoard() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	creator := suite.createTestUser("creator@example.com", "Creator")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID)
	// Creator is no longer a member
	task := suite.createTestTask("Test Task", board.ID, creator.ID)

	c, w := suite.createAuthContext("DELETE", "/api/tasks/1", nil, creator)
	suite.setTaskParam(c, task.ID)

	suite.handler.DeleteTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

// TestListTasks_BoardFilter_NonMember tests board-scoped listing by a
// non-member
func (suite *TaskHandlerTestSuite) TestListTasks_BoardFilter_NonMember() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	stranger := suite.createTestUser("stranger@example.com", "Stranger")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID)
	suite.createTestTask("Test Task", board.ID, owner.ID)

	c, w := suite.createAuthContext("GET", "/api/tasks", nil, stranger)
	c.Request.URL.RawQuery = "board_id=" + strconv.FormatUint(board.ID, 10)

	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestListTasks_ScopedToMembership tests that listing without a board filter
// only returns tasks from the requester's boards
func (suite *TaskHandlerTestSuite) TestListTasks_ScopedToMembership() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	outsider := suite.createTestUser("outsider@example.com", "Outsider")
	visible := suite.createTestBoard("Visible Board", owner.ID, owner.ID)
	hidden := suite.createTestBoard("Hidden Board", outsider.ID, outsider.ID)
	suite.createTestTask("Visible Task", visible.ID, owner.ID)
	suite.createTestTask("Hidden Task", hidden.ID, outsider.ID)

	c, w := suite.createAuthContext("GET", "/api/tasks", nil, owner)

	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskListResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	suite.Require().Len(response.Tasks, 1)
	assert.Equal(suite.T(), "Visible Task", response.Tasks[0].Title)
}

// TestListAssignedTasks tests the assigned-to-me listing
func (suite *TaskHandlerTestSuite) TestListAssignedTasks() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	member := suite.createTestUser("member@example.com", "Member")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID, member.ID)

	assigned := suite.createTestTask("Assigned Task", board.ID, owner.ID)
	assigned.AssigneeID = &member.ID
	suite.db.Save(assigned)
	suite.createTestTask("Unassigned Task", board.ID, owner.ID)

	c, w := suite.createAuthContext("GET", "/api/tasks/assigned-to-me", nil, member)

	suite.handler.ListAssignedTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskListResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	suite.Require().Len(response.Tasks, 1)
	assert.Equal(suite.T(), "Assigned Task", response.Tasks[0].Title)
}

// TestListReviewingTasks tests the reviewing listing
func (suite *TaskHandlerTestSuite) TestListReviewingTasks() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	reviewer := suite.createTestUser("reviewer@example.com", "Reviewer")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID, reviewer.ID)

	task := suite.createTestTask("Reviewed Task", board.ID, owner.ID)
	task.ReviewerID = &reviewer.ID
	suite.db.Save(task)

	c, w := suite.createAuthContext("GET", "/api/tasks/reviewing", nil, reviewer)

	suite.handler.ListReviewingTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskListResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	suite.Require().Len(response.Tasks, 1)
	assert.Equal(suite.T(), "Reviewed Task", response.Tasks[0].Title)
}

// TestSuggestTasks_AINotConfigured tests the suggest endpoint without an AI
// service
func (suite *TaskHandlerTestSuite) TestSuggestTasks_AINotConfigured() {
	user := suite.createTestUser("member@example.com", "Member")
	board := suite.createTestBoard("Sprint Board", user.ID, user.ID)

	requestBody := map[string]interface{}{
		"text":  "Plan the next sprint",
		"board": board.ID,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks/suggest", body, user)

	suite.handler.SuggestTasks(c)

	assert.Equal(suite.T(), http.StatusServiceUnavailable, w.Code)
}

// TestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
