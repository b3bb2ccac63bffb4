package services

import (
	"fmt"

	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
)

// GenerationSpec describes how one kind of question is requested from the
// model: the wire type tag, the structured-output schema the response must
// satisfy, and the user instruction carrying a sample question.
type GenerationSpec struct {
	Type        models.QuestionType
	SchemaName  string
	Instruction string
	Schema      map[string]any
}

// LLMSchema returns the spec's schema in the form the provider expects.
func (s GenerationSpec) LLMSchema() *llm.Schema {
	return &llm.Schema{Name: s.SchemaName, Definition: s.Schema}
}

// TypeReminder is appended to the system prompt so the model does not drift
// from the required type tag.
func (s GenerationSpec) TypeReminder() string {
	return fmt.Sprintf("\nIMPORTANT: Make sure to set the type field exactly as '%s'.", s.Type)
}

// GenerationSpecs returns the pool of question kinds a quiz draws from.
// The true/false kind appears twice: once plain and once with a supporting
// code snippet, both carrying the same wire tag.
func GenerationSpecs() []GenerationSpec {
	return []GenerationSpec{
		multipleChoiceSpec,
		trueFalseCodeSpec,
		trueFalseSpec,
		orderingSpec,
		fillBlankSpec,
		shortAnswerSpec,
		longAnswerSpec,
	}
}

var (
	stringSchema      = map[string]any{"type": "string"}
	integerSchema     = map[string]any{"type": "integer"}
	stringArraySchema = map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
)

// questionSchema builds a strict object schema with the fields every
// question shares, the type field pinned to tag, plus any extra fields.
func questionSchema(tag models.QuestionType, required []string, extra map[string]any) map[string]any {
	properties := map[string]any{
		"type": map[string]any{
			"type": "string",
			"enum": []string{string(tag)},
		},
		"question":    stringSchema,
		"point":       integerSchema,
		"answer":      stringSchema,
		"explanation": stringSchema,
	}
	for name, schema := range extra {
		properties[name] = schema
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

var multipleChoiceSpec = GenerationSpec{
	Type:       models.MultipleChoice,
	SchemaName: "mc_question",
	Instruction: "Please generate a multiple-choice question and corresponding answer based on the content of the system prompt. " +
		"IMPORTANT: The type field MUST be exactly 'MC' (not 'object' or anything else). " +
		"Use the following JSON format of a sample question as a guide, and please only reference the format of the sample question, " +
		`{"type": "MC", "question": "Which of the following is not a principle of OOP?", ` +
		`"point": 1, "choices": ["Encapsulation", "Polymorphism", "Abstraction", "Compilation"], ` +
		`"answer": "Compilation"}` +
		`"explanation": "OOP is centered around four main principles: Encapsulation, Polymorphism, and Abstraction."`,
	Schema: questionSchema(models.MultipleChoice,
		[]string{"type", "question", "point", "choices", "answer", "explanation"},
		map[string]any{"choices": stringArraySchema}),
}

var trueFalseCodeSpec = GenerationSpec{
	Type:       models.TrueFalse,
	SchemaName: "tf_question_with_coding",
	Instruction: "Please generate a true/false choice question with code and corresponding answer based on the content of the system prompt. " +
		"IMPORTANT: The type field MUST be exactly 'T/F' (not 'object' or anything else). " +
		"Provide a code snippet to support the question and ensure the code is correct and relevant to the question. " +
		`{"type": "T/F", "question": "Is inheritance a feature of OOP?", ` +
		`"point": 1, "choices": ["True", "False"], ` +
		`"code": """` + "\n" +
		"class Animal:\n" +
		"    def __init__(self, name):\n" +
		"        self.name = name\n" +
		"\n" +
		"class Dog(Animal):\n" +
		"    def bark(self):\n" +
		`        return f"{self.name} says woof!"` + "\n" +
		"\n" +
		`dog = Dog("Buddy")` + "\n" +
		"print(dog.bark())  # Buddy says woof!\n" +
		`""", ` +
		`"answer": "True"}` +
		`"explanation": "Inheritance is a feature of OOP that allows a new class to inherit properties and methods from an existing class, promoting code reuse."`,
	Schema: questionSchema(models.TrueFalse,
		[]string{"type", "question", "point", "choices", "code", "answer", "explanation"},
		map[string]any{"choices": stringArraySchema, "code": stringSchema}),
}

var trueFalseSpec = GenerationSpec{
	Type:       models.TrueFalse,
	SchemaName: "tf_question",
	Instruction: "Please generate a true/false choice question and corresponding answer based on the content of the system prompt. " +
		"IMPORTANT: The type field MUST be exactly 'T/F' (not 'object' or anything else). " +
		"Use the following JSON format of a sample question as a guide, and please only reference the format of the sample question, " +
		`{"type": "T/F", "question": "Is inheritance a feature of OOP?", ` +
		`"point": 1, "choices": ["True", "False"], ` +
		`"answer": "True"}` +
		`"explanation" : "inheritance is a fundamental feature of Object-Oriented Programming (OOP), allowing classes to inherit properties and methods from other classes."`,
	Schema: questionSchema(models.TrueFalse,
		[]string{"type", "question", "point", "answer", "choices", "explanation"},
		map[string]any{"choices": stringArraySchema}),
}

var orderingSpec = GenerationSpec{
	Type:       models.Ordering,
	SchemaName: "ordering_question",
	Instruction: "Please generate an ordering question and corresponding answer based on the content of the system prompt. " +
		"IMPORTANT: The type field MUST be exactly 'Ordering' (not 'object' or anything else). " +
		"Use the following JSON format of a sample question as a guide, and please only reference the format of the sample question, " +
		`{"type": "Ordering", "question": "Order the following steps in the process of creating an object in OOP.(Drag and drop from top to bottm)", ` +
		`"point": 4, "choices": ["Define a class", "Use an object", "Define methods", "Create the object"], ` +
		`"answer": ["Define a class", "Define methods", "Create an object", "Use the object"]}` +
		`"explanation": "The correct order of steps in creating an object in OOP is to first define a class, then define methods, create the object, and finally use the object."`,
	Schema: func() map[string]any {
		schema := questionSchema(models.Ordering,
			[]string{"type", "question", "point", "choices", "answer", "explanation"},
			map[string]any{"choices": stringArraySchema})
		schema["properties"].(map[string]any)["answer"] = stringArraySchema
		return schema
	}(),
}

var fillBlankSpec = GenerationSpec{
	Type:       models.FillBlank,
	SchemaName: "fill_blank_question",
	Instruction: "Please generate a fill-in-the-blank question and corresponding answer based on the content of the system prompt. " +
		"IMPORTANT: The type field MUST be exactly 'Fill_blank' (not 'object' or anything else). " +
		"Use the following JSON format of a sample question as a guide, and please only reference the format of the sample question, " +
		`{"type": "Fill_blank", "question": "The process of hiding the internal details of an object is called ___.", ` +
		`"point": 2, ` +
		`"answer": "Encapsulation"}` +
		`"explanation": "Encapsulation is the process of hiding the internal details of an object, allowing access to the object through an interface."`,
	Schema: questionSchema(models.FillBlank,
		[]string{"type", "question", "point", "answer", "explanation"},
		nil),
}

var shortAnswerSpec = GenerationSpec{
	Type:       models.ShortAnswer,
	SchemaName: "short_question",
	Instruction: "Please generate a short answer question and corresponding answer based on the content of the system prompt. " +
		"IMPORTANT: The type field MUST be exactly 'Short_qs' (not 'object' or anything else). " +
		"Use the following JSON format of a sample question as a guide, and please only reference the format of the sample question, " +
		`{"type": "Short_qs", "question": "What is a constructor in a class?", ` +
		`"point": 3, ` +
		`"code": """` + "\n" +
		"class Person:\n" +
		"    def __init__(self, name, age):\n" +
		"        self.name = name\n" +
		"        self.age = age\n" +
		"\n" +
		`person = Person("Alice", 30)` + "\n" +
		"print(person.name)  # Alice\n" +
		"print(person.age)   # 30\n" +
		`""", ` +
		`"answer": "A constructor is a special method that is automatically called when an object of a class is created."` +
		`}` +
		`"explanation": "A constructor in a class is a special method that is automatically called when an object of the class is created. It is used to initialize the object's attributes."`,
	Schema: questionSchema(models.ShortAnswer,
		[]string{"type", "question", "point", "answer", "code", "explanation"},
		map[string]any{"code": stringSchema}),
}

var longAnswerSpec = GenerationSpec{
	Type:       models.LongAnswer,
	SchemaName: "long_question",
	Instruction: "Please generate a long answer question and corresponding answer based on the content of the prompt. " +
		"IMPORTANT: The type field MUST be exactly 'Long_qs' (not 'object' or anything else). " +
		"Use the following JSON format of a sample question as a guide. " +
		"It is optional to provide a code snippet to support the question but please ensure that the provided code is correct and relevant to the question. " +
		`{"type": "Long_qs", "question": "Explain the concept of polymorphism in OOP with an example.", ` +
		`"point": 6, ` +
		`"code": """` + "\n" +
		"class Shape:\n" +
		"    def draw(self):\n" +
		`        raise NotImplementedError("Subclasses should implement this method")` + "\n" +
		"\n" +
		"class Circle(Shape):\n" +
		"    def draw(self):\n" +
		`        return "Drawing a circle"` + "\n" +
		"\n" +
		"class Square(Shape):\n" +
		"    def draw(self):\n" +
		`        return "Drawing a square"` + "\n" +
		"\n" +
		"shapes = [Circle(), Square()]\n" +
		"for shape in shapes:\n" +
		"    print(shape.draw())\n" +
		`""", ` +
		`"answer": "Polymorphism in OOP is the ability of different objects to respond to the same function call in different ways."` +
		`}` +
		`"explanation": "Polymorphism in OOP is the ability of different objects to respond to the same function call in different ways. For example, a base class 'Shape' might have a method 'draw'. Subclasses like 'Circle' and 'Square' can override the 'draw' method to provide their specific implementations. When you call 'draw' on a 'Shape' object, the correct method for the actual object type (Circle or Square) is called."`,
	Schema: questionSchema(models.LongAnswer,
		[]string{"type", "question", "point", "answer", "code", "explanation"},
		map[string]any{"code": stringSchema}),
}
