package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"vwv/backend/internal/middleware"
	"vwv/backend/internal/models"
)

const minPasswordLength = 8

type userCreateRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Branch   string `json:"branch"`
}

type userUpdateRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Branch   *string `json:"branch"`
	IsActive *bool   `json:"isActive"`
}

func GetUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/users"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("users").Find(ctx, bson.M{}, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

func CreateUser(db *mongo.Database, defaultBranch string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/users"
		defer handlePanic(c, route)

		actor, _ := middleware.ActorFrom(c)

		var req userCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "email, name, password, and role are required")
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		name := strings.TrimSpace(req.Name)
		if email == "" || name == "" {
			respondWithError(c, http.StatusBadRequest, route, "email and name must not be empty")
			return
		}
		if !strings.Contains(email, "@") {
			respondWithError(c, http.StatusBadRequest, route, "invalid email address")
			return
		}
		if len(req.Password) < minPasswordLength {
			respondWithError(c, http.StatusBadRequest, route, "password must be at least 8 characters")
			return
		}
		if !models.IsValidRole(req.Role) {
			respondWithError(c, http.StatusBadRequest, route, "invalid role")
			return
		}

		branch := strings.TrimSpace(req.Branch)
		if branch == "" {
			branch = defaultBranch
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "hash error")
			return
		}

		now := time.Now()
		user := models.User{
			Email:        email,
			Name:         name,
			PasswordHash: string(hash),
			Role:         req.Role,
			Branch:       branch,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "A user with this email already exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		user.ID = result.InsertedID.(primitive.ObjectID)

		log.Printf("[%s] user %s (%s) created by %s", route, user.ID.Hex(), user.Role, actor.ID)
		c.JSON(http.StatusCreated, gin.H{
			"message": "User created successfully",
			"user":    user,
		})
	}
}

func UpdateUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/users/:id"
		defer handlePanic(c, route)

		actor, _ := middleware.ActorFrom(c)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid user id")
			return
		}

		var req userUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		update := bson.M{"updatedAt": time.Now()}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name must not be empty")
				return
			}
			update["name"] = name
		}
		if req.Role != nil {
			if !models.IsValidRole(*req.Role) {
				respondWithError(c, http.StatusBadRequest, route, "invalid role")
				return
			}
			// An admin cannot demote their own account; that path locks the
			// last administrator out.
			if actor.ID == id.Hex() && *req.Role != models.RoleAdmin {
				respondWithError(c, http.StatusBadRequest, route, "cannot change your own role")
				return
			}
			update["role"] = *req.Role
		}
		if req.Branch != nil {
			branch := strings.TrimSpace(*req.Branch)
			if branch == "" {
				respondWithError(c, http.StatusBadRequest, route, "branch must not be empty")
				return
			}
			update["branch"] = branch
		}
		if req.IsActive != nil {
			if actor.ID == id.Hex() && !*req.IsActive {
				respondWithError(c, http.StatusBadRequest, route, "cannot deactivate your own account")
				return
			}
			update["isActive"] = *req.IsActive
		}
		if req.Password != nil {
			if len(*req.Password) < minPasswordLength {
				respondWithError(c, http.StatusBadRequest, route, "password must be at least 8 characters")
				return
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "hash error")
				return
			}
			update["passwordHash"] = string(hash)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var updated models.User
		err = db.Collection("users").
			FindOneAndUpdate(
				ctx,
				bson.M{"_id": id},
				bson.M{"$set": update},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).
			Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "User not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] user %s updated by %s", route, id.Hex(), actor.ID)
		c.JSON(http.StatusOK, gin.H{
			"message": "User updated successfully",
			"user":    updated,
		})
	}
}
