package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "careerdb"
	}
	db := client.Database(dbName)
	meetingColl := db.Collection("meetings")

	now := time.Now()
	meeting := model.Meeting{
		ID:           "meeting_sprint_kickoff",
		SessionOwner: "player_demo",
		Status:       model.MeetingScheduled,
		Topics: []model.Topic{
			{
				ID:             "t_roadmap",
				Question:       "The Q3 roadmap review is due Friday. Which feature should we cut to make the deadline?",
				Context:        "The team is two weeks behind after the payment-gateway incident.",
				ExpectedPoints: []string{"Trade-offs between scope and deadline", "Who absorbs the cut"},
			},
			{
				ID:             "t_oncall",
				Question:       "On-call load has doubled since the last release. How do we spread it more fairly?",
				Context:        "Two engineers carried 80% of the pages last month.",
				ExpectedPoints: []string{"Rotation changes", "Alert hygiene", "Ownership boundaries"},
			},
			{
				ID:             "t_hiring",
				Question:       "We have budget for one hire. Backend or platform?",
				Context:        "Both leads have argued their case in writing already.",
				ExpectedPoints: []string{"Team bottlenecks", "Growth plans", "Risk of each choice"},
			},
		},
		Participants: []model.Participant{
			{
				ID:          "p_maya",
				Name:        "Maya Lindqvist",
				Role:        "Engineering Manager",
				Personality: "Direct, deadline-focused, allergic to vague answers.",
				Color:       "#7c3aed",
			},
			{
				ID:          "p_deshawn",
				Name:        "DeShawn Carter",
				Role:        "Staff Engineer",
				Personality: "Calm, asks clarifying questions, thinks in trade-offs.",
				Color:       "#0891b2",
			},
			{
				ID:          "p_ines",
				Name:        "Inés Moreno",
				Role:        "Product Lead",
				Personality: "Optimistic, pushes back on scope cuts, champions users.",
				Color:       "#ea580c",
			},
		},
		CurrentTopicIndex: 0,
		IsPlayerTurn:      false,
		LastSeq:           -1,
		Version:           0,
		CreatedAt:         now,
	}

	if _, err := meetingColl.InsertOne(ctx, meeting); err != nil {
		log.Fatalf("Failed to insert meeting: %v", err)
	}

	fmt.Printf("Successfully created meeting '%s' for session owner '%s'\n", meeting.ID, meeting.SessionOwner)
}
