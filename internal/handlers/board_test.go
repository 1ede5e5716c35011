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

// BoardHandlerTestSuite defines the test suite for BoardHandler
type BoardHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *BoardHandler
}

// SetupTest runs before each test
func (suite *BoardHandlerTestSuite) SetupTest() {
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

	boardRepo := repository.NewBoardRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	boardService := services.NewBoardService(boardRepo, userRepo)
	suite.handler = NewBoardHandler(boardService)

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *BoardHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *BoardHandlerTestSuite) createTestUser(email, fullname string) *models.User {
	user := &models.User{
		Email:        email,
		Fullname:     fullname,
		PasswordHash: "hashedpassword",
		IsActive:     true,
	}
	suite.db.Create(user)
	return user
}

func (suite *BoardHandlerTestSuite) createTestAdmin(email string) *models.User {
	user := &models.User{
		Email:        email,
		Fullname:     "Admin",
		PasswordHash: "hashedpassword",
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	suite.db.Create(user)
	return user
}

func (suite *BoardHandlerTestSuite) createTestBoard(title string, ownerID uint64, memberIDs ...uint64) *models.Board {
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

func (suite *BoardHandlerTestSuite) createTestTask(boardID uint64, creatorID uint64, assigneeID, reviewerID *uint64) *models.Task {
	task := &models.Task{
		Title:       "Test Task",
		BoardID:     boardID,
		CreatedByID: &creatorID,
		AssigneeID:  assigneeID,
		ReviewerID:  reviewerID,
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
	}
	suite.db.Create(task)
	return task
}

// Helper function to create authenticated context
func (suite *BoardHandlerTestSuite) createAuthContext(method, url string, body []byte, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
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

func (suite *BoardHandlerTestSuite) setBoardParam(c *gin.Context, boardID uint64) {
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(boardID, 10)}}
}

// TestCreateBoard_OwnerBecomesMember tests that the creator is part of the
// member set even when not listed
func (suite *BoardHandlerTestSuite) TestCreateBoard_OwnerBecomesMember() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	other := suite.createTestUser("other@example.com", "Other")

	requestBody := map[string]interface{}{
		"title":   "Sprint Board",
		"members": []uint64{other.ID},
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/boards", body, owner)

	suite.handler.CreateBoard(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response dto.BoardDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Sprint Board", response.Title)
	assert.Equal(suite.T(), owner.ID, response.OwnerID)
	assert.Equal(suite.T(), 2, response.MemberCount)

	var membership models.BoardMember
	err = suite.db.Where("board_id = ? AND user_id = ?", response.ID, owner.ID).First(&membership).Error
	assert.NoError(suite.T(), err)
}

// TestCreateBoard_DuplicateTitle tests the title uniqueness check
func (suite *BoardHandlerTestSuite) TestCreateBoard_DuplicateTitle() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	suite.createTestBoard("Taken", owner.ID, owner.ID)

	requestBody := map[string]interface{}{"title": "Taken"}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/boards", body, owner)

	suite.handler.CreateBoard(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

// TestCreateBoard_UnknownMember tests creation with a non-existent member ID
func (suite *BoardHandlerTestSuite) TestCreateBoard_UnknownMember() {
	owner := suite.createTestUser("owner@example.com", "Owner")

	requestBody := map[string]interface{}{
		"title":   "Sprint Board",
		"members": []uint64{9999},
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/boards", body, owner)

	suite.handler.CreateBoard(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestCreateBoard_TitleTooLong tests the board title length limit
func (suite *BoardHandlerTestSuite) TestCreateBoard_TitleTooLong() {
	owner := suite.createTestUser("owner@example.com", "Owner")

	requestBody := map[string]interface{}{
		"title": "This board title is way too long.",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/boards", body, owner)

	suite.handler.CreateBoard(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestGetBoard_Member tests board retrieval by a member
func (suite *BoardHandlerTestSuite) TestGetBoard_Member() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	member := suite.createTestUser("member@example.com", "Member")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID, member.ID)
	suite.createTestTask(board.ID, owner.ID, nil, nil)

	c, w := suite.createAuthContext("GET", "/api/boards/1", nil, member)
	suite.setBoardParam(c, board.ID)

	suite.handler.GetBoard(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.BoardDetailDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), board.ID, response.ID)
	assert.Len(suite.T(), response.Members, 2)
	assert.Len(suite.T(), response.Tasks, 1)
}

// TestGetBoard_NonMember tests board retrieval by a non-member
func (suite *BoardHandlerTestSuite) TestGetBoard_NonMember() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	stranger := suite.createTestUser("stranger@example.com", "Stranger")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID)

	c, w := suite.createAuthContext("GET", "/api/boards/1", nil, stranger)
	suite.setBoardParam(c, board.ID)

	suite.handler.GetBoard(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestUpdateBoard_RemovedMemberUnassigned tests that removing a member
// clears their assignee and reviewer slots on the board's tasks
func (suite *BoardHandlerTestSuite) TestUpdateBoard_RemovedMemberUnassigned() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	alice := suite.createTestUser("alice@example.com", "Alice")
	bob := suite.createTestUser("bob@example.com", "Bob")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID, alice.ID, bob.ID)

	taskOne := suite.createTestTask(board.ID, owner.ID, &bob.ID, &alice.ID)
	taskTwo := suite.createTestTask(board.ID, owner.ID, nil, &bob.ID)

	requestBody := map[string]interface{}{
		"members": []uint64{owner.ID, alice.ID},
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/boards/1", body, owner)
	suite.setBoardParam(c, board.ID)

	suite.handler.UpdateBoard(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var updatedOne models.Task
	suite.Require().NoError(suite.db.First(&updatedOne, taskOne.ID).Error)
	assert.Nil(suite.T(), updatedOne.AssigneeID)
	suite.Require().NotNil(updatedOne.ReviewerID)
	assert.Equal(suite.T(), alice.ID, *updatedOne.ReviewerID)

	var updatedTwo models.Task
	suite.Require().NoError(suite.db.First(&updatedTwo, taskTwo.ID).Error)
	assert.Nil(suite.T(), updatedTwo.ReviewerID)

	var remaining int64
	suite.db.Model(&models.BoardMember{}).Where("board_id = ?", board.ID).Count(&remaining)
	assert.Equal(suite.T(), int64(2), remaining)
}

// TestUpdateBoard_TitleOnlyKeepsMembers tests that omitting the member list
// leaves the member set and task assignments untouched
func (suite *BoardHandlerTestSuite) TestUpdateBoard_TitleOnlyKeepsMembers() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	alice := suite.createTestUser("alice@example.com", "Alice")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID, alice.ID)
	task := suite.createTestTask(board.ID, owner.ID, &alice.ID, nil)

	requestBody := map[string]interface{}{"title": "Renamed Board"}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/boards/1", body, owner)
	suite.setBoardParam(c, board.ID)

	suite.handler.UpdateBoard(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.BoardDetailDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Renamed Board", response.Title)
	// The update response nests tasks just like GET does
	assert.Len(suite.T(), response.Tasks, 1)

	var memberCount int64
	suite.db.Model(&models.BoardMember{}).Where("board_id = ?", board.ID).Count(&memberCount)
	assert.Equal(suite.T(), int64(2), memberCount)

	var updated models.Task
	suite.Require().NoError(suite.db.First(&updated, task.ID).Error)
	suite.Require().NotNil(updated.AssigneeID)
	assert.Equal(suite.T(), alice.ID, *updated.AssigneeID)
}

// TestUpdateBoard_NonMemberForbidden tests update by a non-member
func (suite *BoardHandlerTestSuite) TestUpdateBoard_NonMemberForbidden() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	stranger := suite.createTestUser("stranger@example.com", "Stranger")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID)

	requestBody := map[string]interface{}{"title": "Hijacked"}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/boards/1", body, stranger)
	suite.setBoardParam(c, board.ID)

	suite.handler.UpdateBoard(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestDeleteBoard_MemberForbidden tests deletion by a plain member
func (suite *BoardHandlerTestSuite) TestDeleteBoard_MemberForbidden() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	member := suite.createTestUser("member@example.com", "Member")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID, member.ID)

	c, w := suite.createAuthContext("DELETE", "/api/boards/1", nil, member)
	suite.setBoardParam(c, board.ID)

	suite.handler.DeleteBoard(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestDeleteBoard_OwnerCascades tests that deletion removes the board's
// tasks and memberships
func (suite *BoardHandlerTestSuite) TestDeleteBoard_OwnerCascades() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID)
	suite.createTestTask(board.ID, owner.ID, nil, nil)

	c, w := suite.createAuthContext("DELETE", "/api/boards/1", nil, owner)
	suite.setBoardParam(c, board.ID)

	suite.handler.DeleteBoard(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var boardCount, taskCount, memberCount int64
	suite.db.Model(&models.Board{}).Where("id = ?", board.ID).Count(&boardCount)
	suite.db.Model(&models.Task{}).Where("board_id = ?", board.ID).Count(&taskCount)
	suite.db.Model(&models.BoardMember{}).Where("board_id = ?", board.ID).Count(&memberCount)
	assert.Equal(suite.T(), int64(0), boardCount)
	assert.Equal(suite.T(), int64(0), taskCount)
	assert.Equal(suite.T(), int64(0), memberCount)
}

// TestDeleteBoard_AdminAllowed tests that admins can delete boards they are
// not part of
func (suite *BoardHandlerTestSuite) TestDeleteBoard_AdminAllowed() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	admin := suite.createTestAdmin("admin@example.com")
	board := suite.createTestBoard("Sprint Board", owner.ID, owner.ID)

	c, w := suite.createAuthContext("DELETE", "/api/boards/1", nil, admin)
	suite.setBoardParam(c, board.ID)

	suite.handler.DeleteBoard(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

// TestListBoards_ScopedToMembership tests that users only see boards they
// own or belong to
func (suite *BoardHandlerTestSuite) TestListBoards_ScopedToMembership() {
	owner := suite.createTestUser("owner@example.com", "Owner")
	member := suite.createTestUser("member@example.com", "Member")
	outsider := suite.createTestUser("outsider@example.com", "Outsider")
	suite.createTestBoard("Shared Board", owner.ID, owner.ID, member.ID)
	suite.createTestBoard("Private Board", outsider.ID, outsider.ID)

	c, w := suite.createAuthContext("GET", "/api/boards", nil, member)

	suite.handler.ListBoards(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string][]dto.BoardDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	boards := response["boards"]
	suite.Require().Len(boards, 1)
	assert.Equal(suite.T(), "Shared Board", boards[0].Title)
}

// TestSuite runs the test suite
func TestBoardHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(BoardHandlerTestSuite))
}
