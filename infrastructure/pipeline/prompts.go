package pipeline

import (
	"fmt"

	"github.com/tripwing/tripwing/domain/classify"
)

// Prompts are deterministic per stage so identical inputs produce identical
// provider requests.

func workTypePrompt(c *classify.Classification) string {
	return fmt.Sprintf(`Analyze the following task description and classify the type of work needed.

Task: %s

Classify into one of these categories:
1. file_operations - Working with files (read, create, modify, delete)
2. web_search - Searching for information on the internet
3. data_processing - Processing or analyzing data
4. code_generation - Writing or modifying code
5. communication - Sending messages, emails, or communications
6. system_operations - System administration or configuration tasks
7. other - Any other type of task

Respond with JSON format:
{
    "work_type": "category_name",
    "confidence": 0.95,
    "reasoning": "explanation of classification"
}`, c.Input)
}

func categoryPrompt(c *classify.Classification) string {
	return fmt.Sprintf(`Based on the work type %q and the original task, classify the specific category.

Task: %s
Work Type: %s

For each work type, classify into subcategories:

file_operations: read, write, create, delete, modify, copy, move
web_search: general_search, news_search, academic_search, product_search, image_search
data_processing: analysis, transformation, visualization, filtering, aggregation
code_generation: create_new, modify_existing, debug, test, documentation
communication: email, chat, notification, report, presentation
system_operations: install, configure, monitor, backup, security
other: general, custom, unknown

Respond with JSON format:
{
    "category": "specific_category",
    "confidence": 0.95,
    "reasoning": "explanation of category classification"
}`, c.WorkType, c.Input, c.WorkType)
}

func searchTypePrompt(c *classify.Classification) string {
	return fmt.Sprintf(`Based on the work type %q and category %q, determine the optimal search/execution strategy.

Task: %s
Work Type: %s
Category: %s

Determine the search type:
1. local_only - Task can be completed with local resources only
2. web_required - Requires internet search for current information
3. hybrid - Combination of local and web resources
4. mcp_tools - Requires specific MCP tools
5. llm_only - Can be completed with LLM reasoning alone

Respond with JSON format:
{
    "search_type": "strategy_name",
    "confidence": 0.95,
    "reasoning": "explanation of search strategy"
}`, c.WorkType, c.Category, c.Input, c.WorkType, c.Category)
}
